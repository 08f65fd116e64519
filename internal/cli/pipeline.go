package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newValidateCommand(e *env) *cobra.Command {
	var workflowID string
	cmd := &cobra.Command{
		Use:   "validate [DEFINITION...]",
		Short: "Check that a pipeline has exactly one path from start to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.pipelineApp(cmd, workflowID, args)
			if err != nil {
				return err
			}
			result := a.Engine().Validate()
			if !result.Valid {
				return exitError(result.Err())
			}
			ids := make([]string, len(result.Path))
			for i, n := range result.Path {
				ids[i] = n.ID
			}
			fmt.Fprintf(e.out, "valid: %s\n", strings.Join(ids, " -> "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id to use")
	return cmd
}

func newOrderCommand(e *env) *cobra.Command {
	var workflowID string
	cmd := &cobra.Command{
		Use:   "order [DEFINITION...]",
		Short: "Print the nodes in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.pipelineApp(cmd, workflowID, args)
			if err != nil {
				return err
			}
			for _, n := range a.Engine().Order() {
				label := n.Label
				if label == "" {
					label = "-"
				}
				fmt.Fprintf(e.out, "%s\t%s\t%s\n", n.ID, n.Type, label)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id to use")
	return cmd
}

func newPlanCommand(e *env) *cobra.Command {
	var workflowID string
	cmd := &cobra.Command{
		Use:   "plan [DEFINITION...]",
		Short: "Print the operations that a run would send to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.pipelineApp(cmd, workflowID, args)
			if err != nil {
				return err
			}
			p, err := a.Engine().Plan(a.Context(cmd.Context()))
			if err != nil {
				return exitError(err)
			}
			return writeJSON(e.out, p)
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id to use")
	return cmd
}

func newRunCommand(e *env) *cobra.Command {
	var (
		workflowID string
		input      string
	)
	cmd := &cobra.Command{
		Use:   "run [DEFINITION...] --input FILE",
		Short: "Execute a pipeline on the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.pipelineApp(cmd, workflowID, args)
			if err != nil {
				return err
			}
			defer a.Close()

			res, p, err := a.Run(cmd.Context(), input)
			if err != nil {
				return exitError(err)
			}
			fmt.Fprintf(e.out, "finished %d operations in %ss\n", len(p.Operations), res.Elapsed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workflowID, "workflow", "w", "", "workflow id to use")
	cmd.Flags().StringVarP(&input, "input", "i", "", "path of the input file, as seen by the backend")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newServeCommand(e *env) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for the canvas editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.newApp(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				a.Config().Listen = listen
			}
			if err := a.LoadState(cmd.Context()); err != nil {
				return exitError(err)
			}
			defer a.Close()
			return exitError(a.Serve(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default :8080)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
