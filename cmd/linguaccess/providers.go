package main

import (
	"log/slog"

	"github.com/MrWong99/linguaccess/internal/config"
	"github.com/MrWong99/linguaccess/pkg/provider/asr"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/deepgram"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/openai"
	"github.com/MrWong99/linguaccess/pkg/provider/asr/whisper"
)

// registerBuiltinProviders wires the ASR provider factories that ship with
// the service into reg. Each factory receives a config.ProviderEntry and
// constructs the provider from the implementation package.
func registerBuiltinProviders(reg *config.Registry, asrCfg config.ASRConfig) {
	reg.RegisterASR("whisper", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := entry.OptionString("language", ""); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	// whisper-native runs the model in-process; Model is the ggml file path.
	reg.RegisterASR("whisper-native", func(entry config.ProviderEntry) (asr.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = entry.OptionString("model_path", "")
		}
		opts := []whisper.NativeOption{
			whisper.WithPreload(entry.OptionBool("preload", asrCfg.Preload)),
		}
		if lang := entry.OptionString("language", ""); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		if n := entry.OptionInt("max_concurrent", 0); n > 0 {
			opts = append(opts, whisper.WithMaxConcurrent(n))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterASR("openai", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := entry.OptionString("organization", ""); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		if d := entry.OptionDuration("timeout", 0); d > 0 {
			opts = append(opts, openai.WithTimeout(d))
		}
		if n := entry.OptionInt("max_retries", -1); n >= 0 {
			opts = append(opts, openai.WithMaxRetries(n))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterASR("deepgram", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := entry.OptionString("language", ""); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		if kw := entry.OptionStrings("keywords"); len(kw) > 0 {
			opts = append(opts, deepgram.WithKeywords(kw...))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	for _, name := range reg.ASRNames() {
		slog.Debug("registered provider", "kind", "asr", "name", name)
	}
}
