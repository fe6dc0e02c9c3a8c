// Viewer is a read-only transcript inspector. It opens the board's Badger
// store alongside a running service and renders meetings or one meeting's
// full transcript as a table.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"boardroom/domain"
	"boardroom/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	ContentWidth   int    `envconfig:"VIEWER_CONTENT_WIDTH" default:"80"`
}

func main() {
	meetingID := flag.String("meeting", "", "Meeting ID to dump; empty lists all meetings")
	flag.Parse()

	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the bot) holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repository := repositories.NewMeetingRepository(db, slog.Default())

	if *meetingID == "" {
		listMeetings(repository)
		return
	}
	dumpTranscript(repository, *meetingID, config.ContentWidth)
}

func listMeetings(repository repositories.MeetingRepository) {
	meetings, err := repository.ListMeetings()
	if err != nil {
		log.Fatalf("Failed to list meetings: %v", err)
	}

	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("BOARD MEETINGS"))

	table := newTable([]string{"ID", "Status", "Processed", "Created", "Topic"})
	for _, meeting := range meetings {
		table.Append([]string{
			meeting.ID.String(),
			string(meeting.Status),
			fmt.Sprintf("%t", meeting.Processed),
			meeting.CreatedAt.Format("2006-01-02 15:04:05"),
			meeting.Topic,
		})
	}
	table.Render()
}

func dumpTranscript(repository repositories.MeetingRepository, meetingID string, width int) {
	meeting, err := repository.GetMeeting(meetingID)
	if err != nil {
		log.Fatalf("Failed to load meeting %s: %v", meetingID, err)
	}
	entries, err := repository.ListEntries(meetingID)
	if err != nil {
		log.Fatalf("Failed to load transcript: %v", err)
	}

	header := fmt.Sprintf("TRANSCRIPT — %s (%s)", meeting.Topic, meeting.Status)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := newTable([]string{"Round", "Speaker", "Delivered", "Time", "Content"})
	for _, entry := range entries {
		round := fmt.Sprintf("%d", entry.Round)
		if entry.Round == domain.RoundSummary {
			round = color.FgYellow.Render("summary")
		}
		delivered := "-"
		if entry.DeliveryID != nil {
			delivered = fmt.Sprintf("%d", *entry.DeliveryID)
		}
		table.Append([]string{
			round,
			entry.Speaker,
			delivered,
			entry.CreatedAt.Format("15:04:05"),
			truncate(entry.Content, width),
		})
	}
	table.Render()
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func truncate(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width]) + "…"
}
