package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/annotation-engine/pkg/annotator"
)

var templatesAPI string

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect templates stored on the annotation engine API",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a stored template's annotation boxes",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func init() {
	templatesCmd.PersistentFlags().StringVar(&templatesAPI, "api", "http://localhost:8086", "annotation engine API base URL")
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := annotator.NewClient(annotator.ClientConfig{BaseURL: templatesAPI})

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " fetching templates"
	s.Writer = os.Stderr
	s.Start()
	summaries, err := client.ListTemplates(ctx)
	s.Stop()
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}

	if len(summaries) == 0 {
		color.New(color.FgYellow).Println("no templates stored")
		return nil
	}

	bold := color.New(color.Bold)
	bold.Printf("%-30s %-30s %s\n", "NAME", "DOCUMENT", "UPDATED")
	for _, t := range summaries {
		fmt.Printf("%-30s %-30s %s\n", t.Name, t.Document, t.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := annotator.NewClient(annotator.ClientConfig{BaseURL: templatesAPI})

	tpl, err := client.LoadTemplate(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}

	color.New(color.FgCyan).Printf("document: %s, %d boxes\n", tpl.Document, len(tpl.AnnotationBoxes))
	out, err := json.MarshalIndent(tpl.AnnotationBoxes, "", "  ")
	if err != nil {
		return fmt.Errorf("render boxes: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
