package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/gridstore/pkg/api/auth"
	"github.com/marmos91/gridstore/pkg/config"
)

var (
	tokenUsername string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create API access tokens",
	Long: `Create a signed JWT for accessing the gridstore API.

The token is signed with the configured JWT secret (config file or
GRIDSTORE_API_SECRET) and printed to stdout.

Examples:
  # Create a token for a regular user
  gridstore token --username alice

  # Create an admin token (required for deletions)
  gridstore token --username root --role admin`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUsername, "username", "u", "", "Username embedded in the token (required)")
	tokenCmd.Flags().StringVarP(&tokenRole, "role", "r", auth.RoleUser, "Role: user or admin")
	_ = tokenCmd.MarkFlagRequired("username")
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenRole != auth.RoleUser && tokenRole != auth.RoleAdmin {
		return fmt.Errorf("invalid role %q (valid: %s, %s)", tokenRole, auth.RoleUser, auth.RoleAdmin)
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if !cfg.API.HasJWTSecret() {
		return fmt.Errorf("no JWT secret configured; set api.jwt.secret or %s", "GRIDSTORE_API_SECRET")
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.API.GetJWTSecret(),
		Issuer:        cfg.API.JWT.Issuer,
		TokenDuration: cfg.API.JWT.TokenDuration,
	})
	if err != nil {
		return err
	}

	token, expiresAt, err := svc.GenerateToken(tokenUsername, tokenRole)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
