package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Show the active user id",
	Long:  `Prints the active user id, creating and persisting one on first use.`,
	Args:  cobra.NoArgs,
	RunE:  runUser,
}

var userSetCmd = &cobra.Command{
	Use:   "set [user-id]",
	Short: "Replace the active user id",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSet,
}

func init() {
	userCmd.AddCommand(userSetCmd)
	rootCmd.AddCommand(userCmd)
}

func runUser(cmd *cobra.Command, _ []string) error {
	if userProvider == nil {
		return errors.New("identity store not configured")
	}

	id, err := userProvider.GetUser(context.Background())
	if err != nil {
		return err
	}
	cmd.Println(id)
	return nil
}

func runUserSet(cmd *cobra.Command, args []string) error {
	if userProvider == nil {
		return errors.New("identity store not configured")
	}

	if err := userProvider.SetUser(context.Background(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Active user set to %s\n", args[0])
	return nil
}
