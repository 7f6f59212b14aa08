package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackvity/arabfix/pkg/fixer"
	"github.com/stackvity/arabfix/pkg/fixer/encoding"
	"github.com/stackvity/arabfix/pkg/fixer/signature"
	"github.com/stackvity/arabfix/pkg/fixer/writer"
)

const (
	EnvPrefix         = "ARABFIX"
	DefaultConfigName = "arabfix"
)

// LoadAndValidate loads configuration from all sources (defaults, file, profile, env, flags),
// validates the merged configuration and sets up the logger.
// The pipeline decides which config section the pipeline-specific flags
// (--encodings, --markers, --newline, --table) are bound to.
func LoadAndValidate(cfgFile, profileName, appVersion string, verbose bool, pipeline fixer.Pipeline, flags *pflag.FlagSet) (fixer.Options, *slog.Logger, error) {
	var opts fixer.Options
	v := viper.New()

	// Initialize a temporary basic logger for early loading errors
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelFor(verbose)}))

	setDefaults(v)

	// --- Load Config File ---
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		} else {
			tempLogger.Debug("No home directory, skipping user config path", slog.Any("error", err))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) && cfgFile == "" {
			tempLogger.Debug("No configuration file found, using defaults/env/flags.")
		} else {
			configFileUsed := cfgFile
			if configFileUsed == "" {
				configFileUsed = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", configFileUsed), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error reading config file '%s': %w", configFileUsed, err)
		}
	} else {
		opts.ConfigFilePath = v.ConfigFileUsed()
		tempLogger.Debug("Using configuration file", slog.String("path", opts.ConfigFilePath))
	}

	// --- Apply Profile ---
	opts.ProfileName = profileName
	if profileName != "" {
		profileKey := "profiles." + profileName
		profileSettings := v.Sub(profileKey)
		if profileSettings == nil {
			configPath := v.ConfigFileUsed()
			if configPath == "" {
				configPath = "(no config file found)"
			}
			err := fmt.Errorf("profile '%s' not found in config file '%s'", profileName, configPath)
			tempLogger.Error(err.Error())
			return opts, tempLogger, err
		}
		if err := v.MergeConfigMap(profileSettings.AllSettings()); err != nil {
			tempLogger.Error("Error merging profile", slog.String("profile", profileName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
		tempLogger.Debug("Applied configuration profile", slog.String("profile", profileName))
	}

	// --- Bind Environment Variables ---
	// ARABFIX_DRYRUN, ARABFIX_PATCH_NEWLINE, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Bind Flags (Highest Priority) ---
	for key, flagName := range flagBindings(pipeline) {
		flag := flags.Lookup(flagName)
		if flag == nil {
			tempLogger.Debug("Flag lookup failed during binding", slog.String("flag", flagName))
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			tempLogger.Error("Error binding flag", slog.String("flag", flagName), slog.Any("error", err))
			return opts, tempLogger, fmt.Errorf("error binding flag '--%s': %w", flagName, err)
		}
	}

	// --- Unmarshal Final Configuration ---
	opts.AppVersion = appVersion
	if err := v.Unmarshal(&opts); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.Any("error", err))
		return opts, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	opts.Pipeline = pipeline

	// --- Setup Final Logger ---
	logLevel := levelFor(opts.Verbose)
	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logHandler)
	opts.Logger = logHandler

	if err := validateAndDeriveOptions(&opts, logger); err != nil {
		return opts, logger, err
	}

	logger.Debug("Configuration loading and validation complete",
		slog.String("configFile", opts.ConfigFilePath),
		slog.String("profile", opts.ProfileName),
		slog.String("pipeline", string(opts.Pipeline)),
		slog.Bool("verbose", opts.Verbose),
		slog.String("logLevel", logLevel.String()),
	)

	return opts, logger, nil
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// flagBindings maps config keys to flag names. Pipeline flags land in the
// section of the selected pipeline.
func flagBindings(pipeline fixer.Pipeline) map[string]string {
	bindings := map[string]string{
		"dir":          "dir",
		"pattern":      "pattern",
		"dryRun":       "dry-run",
		"verify":       "verify",
		"skipBinary":   "skip-binary",
		"onError":      "on-error",
		"outputFormat": "output-format",
		"verbose":      "verbose",
	}
	section := string(pipeline)
	bindings[section+".encodings"] = "encodings"
	bindings[section+".newline"] = "newline"
	switch pipeline {
	case fixer.PipelineProbe:
		bindings["probe.markers"] = "markers"
	case fixer.PipelinePatch:
		bindings["patch.table"] = "table"
	}
	return bindings
}

// setDefaults establishes the default values for configuration options in Viper.
func setDefaults(v *viper.Viper) {
	// --- Input Selection ---
	v.SetDefault("dir", fixer.DefaultDir)
	v.SetDefault("pattern", fixer.DefaultPattern)

	// --- Behavior & Control ---
	v.SetDefault("dryRun", fixer.DefaultDryRun)
	v.SetDefault("verify", fixer.DefaultVerify)
	v.SetDefault("skipBinary", fixer.DefaultSkipBinary)
	v.SetDefault("onError", string(fixer.DefaultOnErrorMode))
	v.SetDefault("outputFormat", string(fixer.DefaultOutputFormat))
	v.SetDefault("verbose", fixer.DefaultVerbose)

	// --- Pipelines ---
	v.SetDefault("probe.encodings", fixer.DefaultProbeEncodings())
	v.SetDefault("probe.markers", fixer.DefaultMarkers())
	v.SetDefault("probe.newline", string(fixer.DefaultProbeNewline))
	v.SetDefault("patch.encodings", fixer.DefaultPatchEncodings())
	v.SetDefault("patch.newline", string(fixer.DefaultPatchNewline))
	v.SetDefault("patch.table", "")
}

// isValidEnumValue checks if a given string value is present in a slice of allowed enum values.
func isValidEnumValue[T ~string](value T, allowedValues []T) bool {
	return slices.Contains(allowedValues, value)
}

// validateAndDeriveOptions performs semantic validation on the populated Options struct
// and resolves the directory to an absolute path. It wraps errors with fixer.ErrConfigValidation.
func validateAndDeriveOptions(opts *fixer.Options, logger *slog.Logger) error {
	fail := func(key, value string, err error) error {
		logger.Error(err.Error(), slog.String("key", key), slog.String("value", value))
		return err
	}

	// === Path Validations ===
	absDir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return fail("dir", opts.Dir, fmt.Errorf("%w: cannot resolve absolute path '%s': %w", fixer.ErrConfigValidation, opts.Dir, err))
	}
	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fail("dir", opts.Dir, fmt.Errorf("%w: directory '%s' does not exist", fixer.ErrConfigValidation, absDir))
		}
		return fail("dir", opts.Dir, fmt.Errorf("%w: cannot access directory '%s': %w", fixer.ErrConfigValidation, absDir, err))
	}
	if !info.IsDir() {
		return fail("dir", opts.Dir, fmt.Errorf("%w: '%s' is not a directory", fixer.ErrConfigValidation, absDir))
	}
	opts.Dir = absDir
	logger.Debug("Validated directory", slog.String("path", opts.Dir))

	if _, err := filepath.Match(opts.Pattern, ""); err != nil {
		return fail("pattern", opts.Pattern, fmt.Errorf("%w: invalid pattern '%s': %w", fixer.ErrConfigValidation, opts.Pattern, err))
	}

	// === Enum String Validations ===
	allowedOnError := []fixer.OnErrorMode{fixer.OnErrorContinue, fixer.OnErrorStop}
	if !isValidEnumValue(opts.OnErrorMode, allowedOnError) {
		return fail("onError", string(opts.OnErrorMode), fmt.Errorf("%w: invalid value '%s' for key 'onError' (flag --on-error). Allowed: %v", fixer.ErrConfigValidation, opts.OnErrorMode, allowedOnError))
	}
	allowedOutputFormat := []fixer.OutputFormat{fixer.OutputFormatText, fixer.OutputFormatJSON}
	if !isValidEnumValue(opts.OutputFormat, allowedOutputFormat) {
		return fail("outputFormat", string(opts.OutputFormat), fmt.Errorf("%w: invalid value '%s' for key 'outputFormat' (flag --output-format). Allowed: %v", fixer.ErrConfigValidation, opts.OutputFormat, allowedOutputFormat))
	}

	// === Pipeline Sections ===
	// Only the selected pipeline is validated; the other section may hold
	// settings meant for a different invocation.
	switch opts.Pipeline {
	case fixer.PipelineProbe:
		if err := validateSection("probe", opts.Probe.Encodings, opts.Probe.Newline); err != nil {
			return fail("probe", "", err)
		}
		if len(opts.Probe.Markers) == 0 || slices.Contains(opts.Probe.Markers, "") {
			return fail("probe.markers", strings.Join(opts.Probe.Markers, ","), fmt.Errorf("%w: probe.markers must be a non-empty list of non-empty strings", fixer.ErrConfigValidation))
		}
	case fixer.PipelinePatch:
		if err := validateSection("patch", opts.Patch.Encodings, opts.Patch.Newline); err != nil {
			return fail("patch", "", err)
		}
		if opts.Patch.TableFile != "" {
			absTable, err := filepath.Abs(opts.Patch.TableFile)
			if err != nil {
				return fail("patch.table", opts.Patch.TableFile, fmt.Errorf("%w: cannot resolve table path '%s': %w", fixer.ErrConfigValidation, opts.Patch.TableFile, err))
			}
			if _, err := signature.LoadFile(absTable); err != nil {
				return fail("patch.table", opts.Patch.TableFile, fmt.Errorf("%w: %w", fixer.ErrConfigValidation, err))
			}
			opts.Patch.TableFile = absTable
		} else if err := signature.Table(opts.Patch.Rules).Validate(); err != nil {
			return fail("patch.rules", "", fmt.Errorf("%w: %w", fixer.ErrConfigValidation, err))
		}
	default:
		return fail("pipeline", string(opts.Pipeline), fmt.Errorf("%w: unknown pipeline '%s'", fixer.ErrConfigValidation, opts.Pipeline))
	}

	return nil
}

func validateSection(section string, encodings []string, newline string) error {
	if len(encodings) == 0 {
		return fmt.Errorf("%w: %s.encodings must not be empty", fixer.ErrConfigValidation, section)
	}
	if _, err := encoding.LookupAll(encodings); err != nil {
		return fmt.Errorf("%w: %s.encodings: %w", fixer.ErrConfigValidation, section, err)
	}
	if _, err := writer.ParseNewlineMode(newline); err != nil {
		return fmt.Errorf("%w: %s.newline: %w", fixer.ErrConfigValidation, section, err)
	}
	return nil
}
