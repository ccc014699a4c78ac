package config

const (
	defaultUploadDir   = "~/.local/share/captiond/uploads"
	defaultTempDir     = "~/.local/share/captiond/temp"
	defaultDownloadDir = "~/.local/share/captiond/downloads"
	defaultLogDir      = "~/.local/share/captiond/logs"
	defaultAPIBind     = "127.0.0.1:8643"

	defaultLogLevel  = "info"
	defaultLogFormat = "console"

	defaultProviderBaseURL      = "https://api.openai.com/v1"
	defaultTranscriptionModel   = "whisper-1"
	defaultTranslationModel     = "gpt-3.5-turbo"
	defaultTemperature          = 0.3
	defaultRequestTimeoutSecs   = 900
	defaultMaxAttempts          = 5
	defaultBreakerThreshold     = 5
	defaultBreakerCooldownSecs  = 300
	defaultSuspiciousRejectRate = 0.8

	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultSegmentSeconds      = 180
	defaultMaxSegmentBytes     = 25 * 1024 * 1024
	defaultChunkThresholdBytes = 20 * 1024 * 1024

	defaultMaxCueSeconds      = 60
	defaultAdultMaxCueSeconds = 45
	defaultRepetitionCount    = 9
	defaultMergeGapSeconds    = 1
	defaultAdultRatio         = 0.05
	defaultConversationRatio  = 0.10

	defaultMaxBatchChars    = 2000
	defaultBatchPauseMillis = 1000
	defaultTranslateRetries = 3

	defaultAdmissionCooldownSecs  = 5
	defaultAdmissionRetentionSecs = 3600

	defaultJobRetentionMinutes  = 120
	defaultJobSweepIntervalMins = 30

	defaultMaxFileBytes = 10 * 1024 * 1024 * 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir:   defaultUploadDir,
			TempDir:     defaultTempDir,
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
			APIBind:     defaultAPIBind,
		},
		Logging: Logging{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Provider: Provider{
			BaseURL:              defaultProviderBaseURL,
			TranscriptionModel:   defaultTranscriptionModel,
			TranslationModel:     defaultTranslationModel,
			Temperature:          defaultTemperature,
			RequestTimeoutSecs:   defaultRequestTimeoutSecs,
			MaxAttempts:          defaultMaxAttempts,
			LocalWhisperBinary:   "whisper",
			BreakerThreshold:     defaultBreakerThreshold,
			BreakerCooldownSecs:  defaultBreakerCooldownSecs,
			SuspiciousRejectRate: defaultSuspiciousRejectRate,
		},
		Media: Media{
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
			SegmentSeconds:      defaultSegmentSeconds,
			MaxSegmentBytes:     defaultMaxSegmentBytes,
			ChunkThresholdBytes: defaultChunkThresholdBytes,
		},
		Filter: Filter{
			MaxCueSeconds:      defaultMaxCueSeconds,
			AdultMaxCueSeconds: defaultAdultMaxCueSeconds,
			RepetitionCount:    defaultRepetitionCount,
			MergeGapSeconds:    defaultMergeGapSeconds,
			AdultRatio:         defaultAdultRatio,
			ConversationRatio:  defaultConversationRatio,
		},
		Translate: Translate{
			MaxBatchChars:    defaultMaxBatchChars,
			BatchPauseMillis: defaultBatchPauseMillis,
			MaxAttempts:      defaultTranslateRetries,
		},
		Admission: Admission{
			CooldownSeconds:  defaultAdmissionCooldownSecs,
			RetentionSeconds: defaultAdmissionRetentionSecs,
		},
		Jobs: Jobs{
			RetentionMinutes:     defaultJobRetentionMinutes,
			SweepIntervalMinutes: defaultJobSweepIntervalMins,
		},
		Upload: Upload{
			MaxFileBytes: defaultMaxFileBytes,
		},
	}
}
