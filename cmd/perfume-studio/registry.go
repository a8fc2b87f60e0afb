package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"perfume-studio/internal/workflow"
	"perfume-studio/pkg/registry"
)

func newRegistryCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Check an activity registry against the embedded BPMN model",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			if path != "" {
				loaded, err := registry.LoadRegistry(path)
				if err != nil {
					return err
				}
				reg = loaded
			}
			return checkRegistry(reg)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "registry file (default is the embedded one)")
	return cmd
}

func checkRegistry(reg *registry.ActivityRegistry) error {
	tasks, err := workflow.ServiceTasks()
	if err != nil {
		return err
	}
	caught, err := workflow.CaughtErrors()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"BPMN task", "Task type", "Registry", "Timeout", "Uncaught errors"})

	missing, uncaught := 0, 0
	for _, task := range tasks {
		activity, ok := reg.Find(task.TaskType)
		status, timeout, codes := "ok", "-", "-"
		if ok {
			timeout = activity.Timeout
			if open := uncaughtCodes(activity.ErrorCodes, caught[task.TaskType]); len(open) > 0 {
				codes = strings.Join(open, ", ")
				uncaught += len(open)
			}
		} else {
			status = "missing"
			missing++
		}
		t.AppendRow(table.Row{task.ID, task.TaskType, status, timeout, codes})
	}
	t.Render()

	if missing > 0 {
		return fmt.Errorf("%d task types are not in the registry", missing)
	}
	if uncaught > 0 {
		return fmt.Errorf("%d error codes have no boundary event", uncaught)
	}
	return nil
}

func uncaughtCodes(thrown, caught []string) []string {
	var open []string
	for _, code := range thrown {
		found := false
		for _, c := range caught {
			if c == code {
				found = true
				break
			}
		}
		if !found {
			open = append(open, code)
		}
	}
	return open
}
