package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/ranggaxyy/deplot-bot/core/buildinfo"
	coretelegram "github.com/ranggaxyy/deplot-bot/core/telegram"
	"github.com/ranggaxyy/deplot-bot/core/telegram/commands"
	"github.com/ranggaxyy/deplot-bot/core/telegram/format"
	tghelpers "github.com/ranggaxyy/deplot-bot/core/telegram/helpers"
	"github.com/ranggaxyy/deplot-bot/core/telegram/sender"
)

const recentSubmissions = 5

func (a *App) registerAdminCommands(reg *coretelegram.Registry) error {
	err := reg.RegisterCommand("/status", commands.Command{
		Handler:     a.handleStatus,
		Description: "Status bot",
		AdminOnly:   true,
	})
	if err != nil {
		return err
	}
	if a.bot.reset != nil {
		err = reg.RegisterCommand("/reset", commands.Command{
			Handler:     a.handleReset,
			Description: "Akhiri permainan pengguna",
			AdminOnly:   true,
		})
		if err != nil {
			return err
		}
	}
	if a.bot.repo == nil {
		return nil
	}
	return reg.RegisterCommand("/submissions", commands.Command{
		Handler:     a.handleSubmissions,
		Description: "Survei terbaru",
		AdminOnly:   true,
	})
}

// resetText ends the game of the user named in args[0].
func (a *App) resetText(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Pakai: <code>/reset &lt;user_id&gt;</code>"
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return "User id tidak valid."
	}
	if !a.bot.reset(ctx, userID) {
		return fmt.Sprintf("Pengguna <code>%d</code> tidak sedang bermain.", userID)
	}
	return fmt.Sprintf("Permainan pengguna <code>%d</code> diakhiri.", userID)
}

func (a *App) handleReset(c tele.Context) error {
	return tghelpers.SendHTML(c, a.resetText(tghelpers.BuildContext(c), c.Args()), nil)
}

func (a *App) statusText() string {
	var st sender.Stats
	if d := a.dispatcher.Load(); d != nil {
		st = d.Stats()
	}
	text := fmt.Sprintf("<b>deplot-bot</b> <code>%s</code>\nMode: <b>%s</b>\nSesi aktif: <b>%d</b>\nTerkirim: <b>%d</b> · gagal: <b>%d</b> · antre: <b>%d</b>",
		format.EscapeHTML(buildinfo.Summary()), a.cfg.Bot.Mode, a.bot.sessions(), st.Sent, st.Failed, st.Queued)
	if a.metricsDown.Load() {
		text += "\n⚠️ Server metrics mati, cek log."
	}
	return text
}

func (a *App) handleStatus(c tele.Context) error {
	return tghelpers.SendHTML(c, a.statusText(), nil)
}

func (a *App) submissionsText(c tele.Context) (string, error) {
	ctx := tghelpers.BuildContext(c)
	total, err := a.bot.repo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("app: count submissions: %w", err)
	}
	recent, err := a.bot.repo.Recent(ctx, recentSubmissions)
	if err != nil {
		return "", fmt.Errorf("app: recent submissions: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Total survei: <b>%d</b>", total)
	for _, s := range recent {
		fmt.Fprintf(&b, "\n• %s, %d, %s <i>(%s)</i>",
			format.EscapeHTML(s.Name), s.Age, s.Gender.Label(), s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String(), nil
}

func (a *App) handleSubmissions(c tele.Context) error {
	text, err := a.submissionsText(c)
	if err != nil {
		_ = tghelpers.SendHTML(c, "Gagal membaca data survei.", nil)
		return err
	}
	return tghelpers.SendHTML(c, text, nil)
}
