package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/flowgrid/internal/app"
	"github.com/specialistvlad/flowgrid/internal/config"
	"github.com/specialistvlad/flowgrid/internal/hcl"
)

func newWorkflowCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Manage the workflows in the state directory",
	}
	cmd.AddCommand(
		newWorkflowListCommand(e),
		newWorkflowCreateCommand(e),
		newWorkflowDeleteCommand(e),
		newWorkflowSwitchCommand(e),
		newWorkflowImportCommand(e),
		newWorkflowExportCommand(e),
		newWorkflowShowCommand(e),
	)
	return cmd
}

// stateApp builds an app restored from the state directory.
func (e *env) stateApp(cmd *cobra.Command) (*app.App, error) {
	a, err := e.newApp(cmd)
	if err != nil {
		return nil, err
	}
	if err := a.LoadState(cmd.Context()); err != nil {
		return nil, exitError(err)
	}
	return a, nil
}

// mutate runs fn against the restored state and saves the result.
func (e *env) mutate(cmd *cobra.Command, fn func(a *app.App) error) error {
	a, err := e.stateApp(cmd)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return exitError(err)
	}
	return exitError(a.SaveState(cmd.Context()))
}

func newWorkflowListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.stateApp(cmd)
			if err != nil {
				return err
			}
			store := a.Engine().Workflows()
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\tID\tNAME\tNODES\tUPDATED")
			for _, w := range store.List() {
				marker := ""
				if w.ID == store.CurrentID() {
					marker = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", marker, w.ID, w.Name, len(w.Nodes), w.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newWorkflowCreateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty workflow and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func(a *app.App) error {
				id, err := a.Engine().CreateWorkflow(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, id)
				return nil
			})
		},
	}
}

func newWorkflowDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func(a *app.App) error {
				return a.Engine().RemoveWorkflow(args[0])
			})
		},
	}
}

func newWorkflowSwitchCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "switch ID",
		Short: "Select a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func(a *app.App) error {
				w, err := a.Engine().SwitchWorkflow(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "switched to %s (%s)\n", w.ID, w.Name)
				return nil
			})
		},
	}
}

func newWorkflowImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import an exported workflow document or a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func(a *app.App) error {
				w, err := a.LoadDefinition(cmd.Context(), "", args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, w.ID)
				return nil
			})
		},
	}
}

func newWorkflowExportCommand(e *env) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a workflow as a JSON document or an HCL definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.stateApp(cmd)
			if err != nil {
				return err
			}
			var data []byte
			switch format {
			case "json":
				data, err = a.Engine().ExportWorkflow(args[0])
				data = append(data, '\n')
			case "hcl":
				var def *config.Workflow
				if def, err = a.Engine().Definition(args[0]); err == nil {
					data, err = hcl.Encode(def)
				}
			default:
				return usageError(fmt.Errorf("invalid format %q: must be 'json' or 'hcl'", format))
			}
			if err != nil {
				return exitError(err)
			}
			if output == "" {
				_, err = e.out.Write(data)
				return exitError(err)
			}
			return exitError(os.WriteFile(output, data, 0o644))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: 'json' or 'hcl'")
	return cmd
}

func newWorkflowShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show [ID]",
		Short: "Print a workflow, the selected one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.stateApp(cmd)
			if err != nil {
				return err
			}
			id := a.Engine().Workflows().CurrentID()
			if len(args) == 1 {
				id = args[0]
			}
			w, err := a.Engine().Workflows().GetWorkflowData(id)
			if err != nil {
				return exitError(err)
			}
			return writeJSON(e.out, w)
		},
	}
}
