package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/graph"
	"github.com/graphconnect/graphconnect/internal/logger"
)

type sendOptions struct {
	to       string
	subject  string
	body     string
	bodyFile string
	token    string
}

func newSendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an HTML mail to one recipient",
		Example: `  graphmail send --to a@b.com --subject Hi --body "<p>hello</p>"
  GRAPHCONNECT_GRAPH_ACCESS_TOKEN=... graphmail send --to a@b.com --subject Hi --body-file mail.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.to, "to", "", "recipient email address")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&opts.body, "body", "", "HTML message body")
	cmd.Flags().StringVar(&opts.bodyFile, "body-file", "", "read the HTML body from a file")
	cmd.Flags().StringVar(&opts.token, "token", "", "delegated access token; sends as the signed-in user")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("subject")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}

func runSend(cmd *cobra.Command, opts *sendOptions) error {
	body, err := opts.resolveBody()
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.token != "" {
		cfg.Graph.AuthMode = config.AuthModeStatic
		cfg.Graph.AccessToken = opts.token
		cfg.Graph.SenderAddress = ""
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, "console")

	ctrl, err := graph.NewControllerFromConfig(cmd.Context(), cfg.Graph, log.WithComponent("graph"))
	if err != nil {
		return err
	}

	if err := ctrl.SendMail(cmd.Context(), opts.to, opts.subject, body); err != nil {
		if apiErr, ok := graph.IsAPIError(err); ok {
			return fmt.Errorf("graph rejected the message (%d %s): %s", apiErr.StatusCode, apiErr.Code, apiErr.Message)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", opts.to)
	return nil
}

func (o *sendOptions) resolveBody() (string, error) {
	if o.bodyFile == "" {
		return o.body, nil
	}
	data, err := os.ReadFile(o.bodyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	if len(data) == 0 {
		return "", errors.New("body file is empty")
	}
	return string(data), nil
}
