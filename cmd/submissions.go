package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zyzu25/CIANCSC/internal/bootstrap"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	domain "github.com/zyzu25/CIANCSC/internal/domain/contact"
	"github.com/zyzu25/CIANCSC/internal/errs"
	"github.com/zyzu25/CIANCSC/internal/infrastructure/relay/discord"
	"github.com/zyzu25/CIANCSC/internal/ports"
	contactuc "github.com/zyzu25/CIANCSC/internal/usecase/contact"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Review stored contact submissions",
}

var submissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored submissions, oldest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *contactuc.Service) error {
		ctx := cmd.Context()
		asJSON, _ := cmd.Flags().GetBool("json")
		categoryFlag, _ := cmd.Flags().GetString("category")

		items, err := svc.List(ctx)
		if err != nil {
			logging.Error(ctx, "list submissions failed", slog.Any("err", errs.Loggable(err)))
			return err
		}

		if strings.TrimSpace(categoryFlag) != "" {
			category, err := domain.ParseCategory(categoryFlag)
			if err != nil {
				return errs.Wrap(err, "parse --category")
			}
			items = filterSubmissions(items, category)
		}

		if asJSON {
			return writeSubmissionsJSON(cmd.OutOrStdout(), items)
		}
		return renderSubmissionTable(cmd.OutOrStdout(), items)
	}),
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one submission with its payload",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *contactuc.Service) error {
		id, err := strconv.ParseUint(strings.TrimSpace(cmd.Flags().Arg(0)), 10, 64)
		if err != nil {
			return errs.Wrapf(err, "parse submission id %q", cmd.Flags().Arg(0))
		}

		sub, err := svc.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		return renderSubmissionDetail(cmd.OutOrStdout(), sub)
	}),
}

type submissionView struct {
	SubmissionID   uint64          `json:"submissionId"`
	Category       string          `json:"category"`
	Payload        json.RawMessage `json:"payload"`
	SourceAddress  string          `json:"sourceAddress"`
	ClientAgent    *string         `json:"clientAgent,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	RelayDelivered bool            `json:"relayDelivered"`
	RelayResponse  *string         `json:"relayResponse,omitempty"`
}

func toSubmissionView(s ports.Submission) submissionView {
	payload := s.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return submissionView{
		SubmissionID:   s.SubmissionID,
		Category:       s.Category,
		Payload:        payload,
		SourceAddress:  s.SourceAddress,
		ClientAgent:    s.ClientAgent,
		CreatedAt:      s.CreatedAt.UTC(),
		RelayDelivered: s.RelayDelivered,
		RelayResponse:  s.RelayResponse,
	}
}

func filterSubmissions(items []ports.Submission, category domain.Category) []ports.Submission {
	out := make([]ports.Submission, 0, len(items))
	for _, item := range items {
		if item.Category == category.String() {
			out = append(out, item)
		}
	}
	return out
}

func writeSubmissionsJSON(w io.Writer, items []ports.Submission) error {
	views := make([]submissionView, 0, len(items))
	for _, item := range items {
		views = append(views, toSubmissionView(item))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(views); err != nil {
		return errs.Wrap(err, "encode submissions")
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type column struct {
	title string
	width int
}

var submissionColumns = []column{
	{"ID", 6},
	{"CREATED (UTC)", 20},
	{"CATEGORY", 20},
	{"SOURCE", 16},
	{"RELAY", 10},
}

const (
	relayDelivered = "delivered"
	relaySkipped   = "skipped"
	relayFailed    = "failed"
)

// relayState is skipped when no webhook was configured at submit time.
func relayState(s ports.Submission) string {
	switch {
	case s.RelayDelivered:
		return relayDelivered
	case s.RelayResponse != nil && *s.RelayResponse == discord.ResponseDisabled:
		return relaySkipped
	default:
		return relayFailed
	}
}

func renderSubmissionTable(w io.Writer, items []ports.Submission) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, dimStyle.Render("no submissions stored"))
		return err
	}

	var b strings.Builder
	cells := make([]string, 0, len(submissionColumns))
	for _, c := range submissionColumns {
		cells = append(cells, headerStyle.Width(c.width).Render(c.title))
	}
	b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
	b.WriteByte('\n')

	for _, item := range items {
		relay := relayState(item)
		switch relay {
		case relayDelivered:
			relay = okStyle.Render(relay)
		case relaySkipped:
			relay = dimStyle.Render(relay)
		default:
			relay = failStyle.Render(relay)
		}
		values := []string{
			strconv.FormatUint(item.SubmissionID, 10),
			item.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			item.Category,
			item.SourceAddress,
			relay,
		}
		cells = cells[:0]
		for i, c := range submissionColumns {
			cells = append(cells, lipgloss.NewStyle().Width(c.width).Render(values[i]))
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d submission(s)", len(items))))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func renderSubmissionDetail(w io.Writer, s ports.Submission) error {
	label := func(name string) string { return headerStyle.Render(name + ":") }

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", label("Submission"), s.SubmissionID)
	category := s.Category
	if c, err := domain.ParseCategory(s.Category); err == nil {
		category = fmt.Sprintf("%s (%s)", c.DisplayName(), c)
	}
	fmt.Fprintf(&b, "%s %s\n", label("Category"), category)
	fmt.Fprintf(&b, "%s %s\n", label("Created"), s.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "%s %s\n", label("Source"), s.SourceAddress)
	if s.ClientAgent != nil {
		fmt.Fprintf(&b, "%s %s\n", label("Client"), *s.ClientAgent)
	}

	relay := relayState(s)
	if s.RelayResponse != nil {
		relay += " (" + *s.RelayResponse + ")"
	}
	fmt.Fprintf(&b, "%s %s\n", label("Relay"), relay)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, s.Payload, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(s.Payload)
	}
	fmt.Fprintf(&b, "%s\n%s\n", label("Payload"), pretty.String())

	_, err := io.WriteString(w, b.String())
	return err
}

func init() {
	submissionsListCmd.Flags().Bool("json", false, "Print submissions as JSON")
	submissionsListCmd.Flags().String("category", "", "Only list submissions of this category")
	submissionsCmd.AddCommand(submissionsListCmd, submissionsShowCmd)
	rootCmd.AddCommand(submissionsCmd)
}
