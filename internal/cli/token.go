package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/ui"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the GitHub access token",
}

var tokenUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Store a new personal access token",
	Long: `Verifies a GitHub personal access token and stores it in hubber.yaml.
The token needs the repo scope.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := loadCommandContext(cmd)
		if err != nil {
			return err
		}
		token, _ := cmd.Flags().GetString("token")
		return runTokenUpdate(cc, token)
	},
}

func runTokenUpdate(cc *CommandContext, token string) error {
	if token == "" {
		var err error
		if token, err = ui.Password("GitHub personal access token"); err != nil {
			if errors.Is(err, ui.ErrInputDisabled) {
				return fmt.Errorf("%w: pass --token", hubbererrors.ErrTokenMissing)
			}
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return hubbererrors.ErrTokenMissing
	}

	client, err := cc.newClient(token)
	if err != nil {
		return err
	}
	user, err := client.Authenticate(cc.Ctx)
	if err != nil {
		return err
	}

	if os.Getenv(config.EnvPrefix+"_ACCESS_TOKEN") != "" {
		ui.PrintWarning("%s_ACCESS_TOKEN is set and takes precedence over the stored token", config.EnvPrefix)
	}
	cc.Config.SetToken(token)
	if err := cc.SaveConfig(); err != nil {
		return err
	}
	ui.PrintSuccess("Token stored for %s", user.Login)
	return nil
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenUpdateCmd)

	tokenUpdateCmd.Flags().String("token", "", "Token to store (default: prompt)")
}
