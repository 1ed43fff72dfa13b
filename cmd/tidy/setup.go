package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/thinkingscript/tidy/internal/config"
	"github.com/thinkingscript/tidy/internal/provider"
	"github.com/thinkingscript/tidy/internal/ui"
)

var (
	setupProviderFlag string
	setupAPIKeyFlag   string
	setupModelFlag    string
)

var setupCmd = &cobra.Command{
	Use:          "setup",
	Short:        "Configure the AI provider used for safety checks",
	RunE:         runSetup,
	SilenceUsage: true,
}

func init() {
	setupCmd.Flags().StringVar(&setupProviderFlag, "provider", "", "Provider: anthropic or gemini")
	setupCmd.Flags().StringVar(&setupAPIKeyFlag, "api-key", "", "API key for the provider")
	setupCmd.Flags().StringVar(&setupModelFlag, "model", "", "Model to use")
}

var modelOptions = map[string][]huh.Option[string]{
	"anthropic": {
		huh.NewOption("Claude Sonnet 4.5 (recommended)", "claude-sonnet-4-5-20250929"),
		huh.NewOption("Claude Haiku 4.5", "claude-haiku-4-5-20251001"),
	},
	"gemini": {
		huh.NewOption("Gemini 2.5 Flash (recommended)", "gemini-2.5-flash"),
		huh.NewOption("Gemini 2.5 Pro", "gemini-2.5-pro"),
	},
}

func runSetup(cmd *cobra.Command, args []string) error {
	if err := config.EnsureHomeDir(); err != nil {
		return fmt.Errorf("initializing home directory: %w", err)
	}

	existing, err := config.Load()
	if err != nil {
		warn(err.Error())
	}

	providerName := strings.ToLower(setupProviderFlag)
	if providerName == "" {
		if providerName, err = promptProvider(existing.Provider); err != nil {
			return err
		}
	}
	if _, ok := modelOptions[providerName]; !ok {
		return fmt.Errorf("unknown provider %q (want anthropic or gemini)", providerName)
	}

	keepKey := ""
	if existing.Provider == "" || existing.Provider == providerName {
		keepKey = existing.APIKey
	}
	apiKey := setupAPIKeyFlag
	if apiKey == "" {
		if apiKey, err = promptAPIKey(keepKey); err != nil {
			return err
		}
	}

	model := setupModelFlag
	if model == "" {
		if model, err = promptModel(providerName, existing.Model); err != nil {
			return err
		}
	}

	if !validateAPIKey(cmd.Context(), providerName, apiKey, model) {
		fmt.Fprintln(os.Stderr, ui.Warning.Render("\n  API key validation failed."))
		if setupAPIKeyFlag != "" {
			fmt.Fprintln(os.Stderr, "  Saving anyway (network may be unavailable).")
		} else {
			save, err := promptSaveAnyway()
			if err != nil {
				return err
			}
			if !save {
				fmt.Fprintln(os.Stderr, "  Setup cancelled.")
				return nil
			}
		}
	}

	existing.Provider = providerName
	existing.APIKey = apiKey
	existing.Model = model
	if err := config.Save(existing); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n  Config saved to %s\n", config.Path())
	fmt.Fprintln(os.Stderr, "  Try it out: tidy, then type \"clean up empty files\"")
	return nil
}

func runForm(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).WithOutput(os.Stderr)
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	return nil
}

func promptProvider(existing string) (string, error) {
	choice := existing
	if choice == "" {
		choice = config.DefaultProvider
	}
	sel := huh.NewSelect[string]().
		Title("Provider").
		Description("Which AI provider should check deletions?").
		Options(
			huh.NewOption("Anthropic", "anthropic"),
			huh.NewOption("Google Gemini", "gemini"),
		).
		Value(&choice)
	if err := runForm(sel); err != nil {
		return "", err
	}
	return choice, nil
}

func promptAPIKey(existing string) (string, error) {
	var apiKey string
	placeholder := "paste your key"
	description := "Enter your API key"
	if existing != "" {
		placeholder = maskKey(existing)
		description = "Enter a new API key or press Enter to keep existing"
	}

	input := huh.NewInput().
		Title("API Key").
		Description(description).
		Placeholder(placeholder).
		EchoMode(huh.EchoModePassword).
		Value(&apiKey)
	if err := runForm(input); err != nil {
		return "", err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" && existing != "" {
		return existing, nil
	}
	if apiKey == "" {
		return "", fmt.Errorf("API key is required")
	}
	return apiKey, nil
}

// maskKey keeps a short prefix and suffix of key visible.
func maskKey(key string) string {
	if len(key) > 11 {
		return key[:7] + strings.Repeat("*", len(key)-11) + key[len(key)-4:]
	}
	return strings.Repeat("*", len(key))
}

func promptModel(providerName, existing string) (string, error) {
	options := modelOptions[providerName]
	model := options[0].Value
	for _, o := range options {
		if o.Value == existing {
			model = existing
		}
	}

	sel := huh.NewSelect[string]().
		Title("Model").
		Description("Choose a default model").
		Options(options...).
		Value(&model)
	if err := runForm(sel); err != nil {
		return "", err
	}
	return model, nil
}

func validateAPIKey(ctx context.Context, providerName, apiKey, model string) bool {
	stop := ui.Spinner("Validating API key...")
	defer stop()

	p, err := provider.New(ctx, &config.Resolved{Provider: providerName, APIKey: apiKey, Model: model})
	if err != nil {
		return false
	}
	_, err = p.Chat(ctx, provider.ChatParams{
		Model:     model,
		MaxTokens: 1,
		Messages:  []provider.Message{provider.NewUserMessage("hi")},
	})
	return err == nil
}

func promptSaveAnyway() (bool, error) {
	var save bool
	confirm := huh.NewConfirm().
		Title("Save anyway?").
		Description("The API key could not be validated. Save it anyway?").
		Affirmative("Yes").
		Negative("No").
		Value(&save)
	if err := runForm(confirm); err != nil {
		return false, err
	}
	return save, nil
}
