package cmd

import (
	"fmt"

	"deployctl/internal/password"

	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Generate a random password without ambiguous characters (O 0 I l 1)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		length, _ := cmd.Flags().GetInt("length")
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		out := make([]string, 0, count)
		for i := 0; i < count; i++ {
			pw, err := password.Generate(length)
			if err != nil {
				return err
			}
			out = append(out, pw)
		}
		p := printer(cmd)
		if p.JSONEnabled() {
			return p.PrintJSON(out)
		}
		for _, pw := range out {
			fmt.Println(pw)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.Flags().IntP("length", "n", password.DefaultLength, "Password length")
	passwordCmd.Flags().IntP("count", "c", 1, "Number of passwords to generate")
}
