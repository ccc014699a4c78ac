package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(resolveClient func() (*apiClient, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status [jobID]",
		Short: "Show daemon health, or the state of one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return runJobStatus(cmd, client, args[0])
			}
			return runDaemonStatus(cmd, client)
		},
	}
}

func runDaemonStatus(cmd *cobra.Command, client *apiClient) error {
	printer := newStatusPrinter(cmd.OutOrStdout())
	printer.section("Captiond Status")

	health, err := client.Health(cmd.Context())
	if err != nil {
		printer.line("API", statusError, err.Error())
		return nil
	}
	printer.line("API", statusOK, client.baseURL)
	printer.line("ffmpeg", boolKind(health.FFmpegAvailable), "")
	printer.line("ffprobe", boolKind(health.FFprobeAvailable), "")
	providerKind, providerMsg := statusOK, "configured"
	if !health.ProviderConfigured {
		providerKind, providerMsg = statusWarn, "api key missing"
	}
	printer.line("Provider", providerKind, providerMsg)

	active, err := client.Active(cmd.Context())
	if err != nil {
		return err
	}
	printer.line("Jobs in flight", statusInfo,
		fmt.Sprintf("%d active, %d clients in cooldown", len(active.ActiveJobs), active.TotalHistory))
	return nil
}

func runJobStatus(cmd *cobra.Command, client *apiClient, jobID string) error {
	status, err := client.JobStatus(cmd.Context(), jobID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", status.JobID)
	fmt.Fprintf(out, "Status:   %s\n", status.Status)
	fmt.Fprintf(out, "Progress: %d%%\n", status.Progress)
	if strings.TrimSpace(status.Message) != "" {
		fmt.Fprintf(out, "Message:  %s\n", status.Message)
	}
	fmt.Fprintf(out, "Started:  %s\n", status.StartTime.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}
