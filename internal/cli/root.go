// Package cli implements the bookshelf command-line client.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bookshelf/internal/client"
	"bookshelf/internal/pkg/logx"
)

const defaultServer = "http://localhost:8080"

type options struct {
	server    string
	tokenFile string
	verbose   bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	o := &options{}

	rootCmd := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Search books and manage your saved list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			out := io.Discard
			if o.verbose {
				out = cmd.ErrOrStderr()
			}
			logx.InitGlobalLogger(logx.Options{Development: true, Output: out})
		},
	}

	server := os.Getenv("BOOKSHELF_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&o.server, "server", server, "bookshelf server URL (env BOOKSHELF_SERVER)")
	rootCmd.PersistentFlags().StringVar(&o.tokenFile, "token-file", "", "where the session credential is kept (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(
		newRegisterCommand(o),
		newLoginCommand(o),
		newLogoutCommand(o),
		newMeCommand(o),
		newProfileCommand(o),
		newSearchCommand(o),
		newSaveCommand(o),
		newRemoveCommand(o),
	)

	return rootCmd
}

func (o *options) session() (*client.Session, error) {
	path := o.tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}
	logx.Debug("opening session", "server", o.server, "token_file", path)
	return client.NewSession(client.NewAPI(o.server, nil), client.NewFileTokenStore(path))
}

func (o *options) api() *client.API {
	return client.NewAPI(o.server, nil)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("print result: %w", err)
	}
	return nil
}
