package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newJobsCommand(resolveClient func() (*apiClient, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List in-flight jobs and recently generated caption files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := resolveClient()
			if err != nil {
				return err
			}
			active, err := client.Active(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(active.ActiveJobs) == 0 {
				fmt.Fprintln(out, "No jobs in flight.")
			} else {
				rows := make([][]string, 0, len(active.ActiveJobs))
				for _, job := range active.ActiveJobs {
					rows = append(rows, []string{
						job.ID,
						string(job.Status),
						strconv.Itoa(job.Progress) + "%",
						job.OriginalName,
						job.SourceLanguage + " -> " + job.TargetLanguage,
						job.UpdatedAt.Local().Format("15:04:05"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"JOB", "STATUS", "PROGRESS", "FILE", "LANGUAGES", "UPDATED"},
					rows, 2, 5))
			}

			if len(active.Recent) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			rows := make([][]string, 0, len(active.Recent))
			for _, artifact := range active.Recent {
				rows = append(rows, []string{
					artifact.JobID,
					artifact.Format,
					artifact.OriginalName,
					strconv.Itoa(artifact.SegmentCount),
					strconv.FormatInt(artifact.Bytes, 10),
					artifact.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"JOB", "FORMAT", "FILE", "CUES", "BYTES", "CREATED"},
				rows, 3, 4, 5))
			return nil
		},
	}
}
