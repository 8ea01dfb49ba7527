package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
)

var explainCmd = &cobra.Command{
	Use:   "explain [scripts|dom|<rule>]",
	Short: "Show optimization tips for a rule",
	Long: `Print the optimization tips behind a rule together with a link for further
reading. A rule may be named by topic (scripts, dom), identifier
(script-blocking, div-count, div-nesting) or ID (GL1001). Without an
argument every topic is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("locale", "", "message locale (en|ko); default from config")
	explainCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type explainPayload struct {
	Topic     string   `json:"topic"`
	Rules     []string `json:"rules"`
	Title     string   `json:"title"`
	Tips      []string `json:"tips"`
	LearnMore string   `json:"learn_more"`
	URL       string   `json:"url"`
}

type explainTopic struct {
	name  string
	codes []diag.Code
	info  func(*messages.Printer) messages.Info
}

var explainTopics = []explainTopic{
	{name: "scripts", codes: []diag.Code{diag.ScriptBlocking}, info: (*messages.Printer).ScriptInfo},
	{name: "dom", codes: []diag.Code{diag.DivCount, diag.DivNesting}, info: (*messages.Printer).DOMInfo},
}

func runExplain(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	topics := explainTopics
	if len(args) == 1 {
		topic, err := findTopic(args[0])
		if err != nil {
			return err
		}
		topics = []explainTopic{topic}
	}

	cfg, _, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}
	_, printer, err := ruleOptions(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return renderExplainJSON(out, topics, printer)
	}
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}
	renderExplainPretty(out, topics, printer, useColor)
	return nil
}

func findTopic(name string) (explainTopic, error) {
	for _, t := range explainTopics {
		if strings.EqualFold(t.name, name) {
			return t, nil
		}
	}
	if code, ok := diag.ParseRule(name); ok {
		for _, t := range explainTopics {
			for _, c := range t.codes {
				if c == code {
					return t, nil
				}
			}
		}
	}
	return explainTopic{}, fmt.Errorf("unknown topic %q (expected scripts, dom or a rule name)", name)
}

func ruleNames(codes []diag.Code) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.String())
	}
	return out
}

func renderExplainPretty(out io.Writer, topics []explainTopic, p *messages.Printer, useColor bool) {
	heading := color.New(color.FgGreen, color.Bold)
	link := color.New(color.FgCyan, color.Underline)
	if useColor {
		heading.EnableColor()
		link.EnableColor()
	} else {
		heading.DisableColor()
		link.DisableColor()
	}

	for i, t := range topics {
		if i > 0 {
			fmt.Fprintln(out)
		}
		info := t.info(p)
		fmt.Fprintf(out, "%s [%s]\n", heading.Sprint(info.Title), strings.Join(ruleNames(t.codes), ", "))
		for n, tip := range info.Tips {
			fmt.Fprintf(out, "  %d. %s\n", n+1, tip)
		}
		fmt.Fprintf(out, "%s: %s\n", info.LearnMore, link.Sprint(info.URL))
	}
}

func renderExplainJSON(out io.Writer, topics []explainTopic, p *messages.Printer) error {
	payload := make([]explainPayload, 0, len(topics))
	for _, t := range topics {
		info := t.info(p)
		payload = append(payload, explainPayload{
			Topic:     t.name,
			Rules:     ruleNames(t.codes),
			Title:     info.Title,
			Tips:      info.Tips,
			LearnMore: info.LearnMore,
			URL:       info.URL,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
