package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vrsandeep/readalong/internal/gateway"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/schedule"
)

// connect logs in to the configured server after checking it speaks a
// compatible API version.
func connect(ctx context.Context, v *viper.Viper) (*gateway.Client, error) {
	user, password := v.GetString("user"), v.GetString("password")
	if user == "" || password == "" {
		return nil, fmt.Errorf("--user and --password (or READALONG_USER and READALONG_PASSWORD) are required")
	}
	client, err := gateway.NewClient(v.GetString("server"))
	if err != nil {
		return nil, err
	}
	if err := client.CheckServerVersion(ctx, version); err != nil {
		return nil, err
	}
	if _, err := client.Login(ctx, user, password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return client, nil
}

func groupArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid group ID %q", arg)
	}
	return id, nil
}

func newGroupsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List your reading groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			groups, err := client.ListGroupsForMember(ctx)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no groups")
				return nil
			}
			rows := make([][]string, 0, len(groups))
			for _, g := range groups {
				rows = append(rows, []string{
					strconv.FormatInt(g.ID, 10), g.Name, g.BookTitle,
					fmt.Sprintf("%s..%s", g.StartDate, g.ScheduleEnd()), strconv.Itoa(g.MemberCount),
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Group", "Book", "Dates", "Members"}, rows))
			return nil
		},
	}
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func newProgressCmd(v *viper.Viper) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "progress [group]",
		Short: "Show your progress, or a group's standings with --stats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				list, err := client.ListProgress(ctx)
				if err != nil {
					return err
				}
				for _, p := range list {
					printProgress(out, p)
				}
				return nil
			}

			groupID, err := groupArg(args[0])
			if err != nil {
				return err
			}
			if stats {
				s, err := client.GetProgressStats(ctx, groupID)
				if err != nil {
					return err
				}
				printStats(out, s)
				return nil
			}
			p, err := client.GetProgress(ctx, groupID)
			if err != nil {
				return err
			}
			printProgress(out, p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "show every member's standing in the group")
	return cmd
}

func printProgress(w io.Writer, p *models.ReadingProgress) {
	pace := "no pace set"
	if p.SpeedSet() {
		pace = fmt.Sprintf("%d min/page", p.ReadingSpeedMinutes)
	}
	_, _ = fmt.Fprintf(w, "group %d  %s  page %d of %d (furthest %d, %d%%)  %s\n",
		p.GroupID, p.BookTitle, p.CurrentPage, p.TotalPages, p.MaxPageReached, schedule.ActualPercent(p.MaxPageReached, p.TotalPages), pace)
}

func printStats(w io.Writer, s *models.ProgressStats) {
	_, _ = fmt.Fprintf(w, "%d members, expected progress %d%%\n", s.TotalMembers, s.ExpectedProgress)
	for _, b := range []struct {
		name   string
		bucket models.ProgressBucket
	}{
		{"completed", s.Completed},
		{"on track", s.OnTrack},
		{"behind", s.Behind},
		{"not started", s.NotStarted},
	} {
		_, _ = fmt.Fprintln(w, titleStyle.Render(b.name)+mutedStyle.Render(fmt.Sprintf(" %d", b.bucket.Count)))
		if len(b.bucket.Members) == 0 {
			continue
		}
		rows := make([][]string, 0, len(b.bucket.Members))
		for _, m := range b.bucket.Members {
			rows = append(rows, []string{m.Username, strconv.Itoa(m.CurrentPage), fmt.Sprintf("%d%%", m.ProgressPercent)})
		}
		_, _ = fmt.Fprintln(w, renderTable([]string{"Member", "Page", "Progress"}, rows))
	}
}

func newRemindersCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Show reminders for all your groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			events, err := client.Reminders(ctx)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reminders")
				return nil
			}
			for _, e := range events {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%s] group %d: %s\n", e.Kind, e.GroupID, e.Message)
			}
			return nil
		},
	}
}

func newChaptersCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "chapters <group>",
		Short: "List the chapters of a group's book with your schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, err := groupArg(args[0])
			if err != nil {
				return err
			}
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			gc, err := client.Chapters(ctx, groupID)
			if err != nil {
				return err
			}
			schedules, err := client.ListChapterSchedules(ctx, groupID)
			if err != nil {
				return err
			}
			byChapter := make(map[int64]*models.ChapterSchedule, len(schedules))
			for _, cs := range schedules {
				byChapter[cs.ChapterID] = cs
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, titleStyle.Render(gc.BookTitle)+mutedStyle.Render(fmt.Sprintf(" (%s..%s)", gc.GroupStartDate, gc.GroupEndDate)))
			rows := make([][]string, 0, len(gc.Chapters))
			for _, ch := range gc.Chapters {
				target, status := "-", "No deadline set"
				if cs, ok := byChapter[ch.ID]; ok {
					if cs.TargetCompletionDate != nil {
						target = cs.TargetCompletionDate.String()
					}
					status = statusLabel(cs)
				}
				rows = append(rows, []string{strconv.FormatInt(ch.ID, 10), strconv.Itoa(ch.ChapterNumber), ch.Title, target, status})
			}
			_, _ = fmt.Fprintln(out, renderTable([]string{"ID", "#", "Chapter", "Target", "Status"}, rows))
			return nil
		},
	}
}

func newScheduleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{Use: "schedule", Short: "Manage your chapter deadlines"}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <group> <chapter-id> <YYYY-MM-DD>",
		Short: "Set the target date for a chapter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, err := groupArg(args[0])
			if err != nil {
				return err
			}
			chapterID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chapter ID %q", args[1])
			}
			client, err := connect(ctx, v)
			if err != nil {
				return err
			}
			result, err := client.UpsertChapterSchedules(ctx, groupID, []models.ChapterScheduleInput{
				{ChapterID: chapterID, TargetCompletionDate: args[2]},
			})
			if err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%s", result.Errors[0])
			}
			for _, cs := range result.Schedules {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chapter %d due %s (%s)\n", cs.ChapterNumber, cs.TargetCompletionDate, statusLabel(cs))
			}
			return nil
		},
	})

	for _, done := range []bool{true, false} {
		use, short := "done <group> <schedule-id>", "Mark a chapter completed"
		if !done {
			use, short = "undo <group> <schedule-id>", "Mark a chapter not completed"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				groupID, err := groupArg(args[0])
				if err != nil {
					return err
				}
				scheduleID, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid schedule ID %q", args[1])
				}
				client, err := connect(ctx, v)
				if err != nil {
					return err
				}
				cs, err := client.ToggleChapterCompletion(ctx, groupID, scheduleID, done)
				if err != nil {
					return err
				}
				when := ""
				if cs.CompletedAt != nil {
					when = " on " + cs.CompletedAt.Local().Format(time.DateTime)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "chapter %d: %s%s\n", cs.ChapterNumber, statusLabel(cs), when)
				return nil
			},
		})
	}
	return cmd
}

func statusLabel(cs *models.ChapterSchedule) string {
	if cs.Status == nil {
		return "No deadline set"
	}
	return cs.Status.Label
}
