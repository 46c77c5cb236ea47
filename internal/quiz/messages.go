package quiz

import (
	"fmt"
	"html"
	"time"

	"github.com/ranggaxyy/deplot-bot/internal/questions"
)

const msgWelcome = "👋 Selamat datang di <b>Deplot Quiz</b>!\n\n" +
	"Pilih kategori di bawah untuk mulai bermain. Setiap soal punya <b>3</b> kesempatan menjawab."

const (
	msgBackToMenu    = "🏠 Kembali ke menu utama. Pilih kategori untuk bermain lagi."
	msgNotUnderstood = "🤔 Maaf, aku tidak mengerti. Pilih kategori dari menu atau ketik /help."
	msgConsecutive   = "🚫 Terlalu banyak percobaan di kategori ini. Istirahat sebentar atau coba kategori lain ya."
	msgNoQuestion    = "⚠️ Soal untuk kategori ini belum tersedia. Coba kategori lain ya."
)

func helpText(limits limitsView) string {
	return fmt.Sprintf("ℹ️ <b>Cara bermain</b>\n\n"+
		"1. Pilih kategori: Matematika, Teka-teki atau Logika.\n"+
		"2. Ketik jawabanmu. Kamu punya <b>%d</b> percobaan per soal.\n"+
		"3. Tekan 🏠 Menu kapan saja untuk kembali.\n\n"+
		"Batas: <b>%d</b> permainan per hari, jeda <b>%d</b> detik antar permainan.\n\n"+
		"Perintah: /start, /menu, /stats, /help",
		MaxAttempts, limits.daily, limits.cooldownSeconds)
}

func statsText(played, daily int) string {
	return fmt.Sprintf("📊 <b>Statistik hari ini</b>\n\nPermainan dimainkan: <b>%d</b> dari %d.", played, daily)
}

func questionText(q questions.Question) string {
	return fmt.Sprintf("%s <b>%s</b> · level %d\n\n%s\n\nKamu punya <b>%d</b> percobaan.",
		q.Category.Emoji(), q.Category.Label(), q.Difficulty, q.Text, MaxAttempts)
}

func solvedText(q questions.Question, attempts int) string {
	return fmt.Sprintf("🎉 Benar! Jawabannya <code>%s</code>.\nKamu berhasil dalam <b>%d percobaan</b>.",
		html.EscapeString(q.Answer), attempts)
}

func exhaustedText(q questions.Question) string {
	return fmt.Sprintf("😔 Kesempatan habis! Jawaban yang benar: <code>%s</code>", html.EscapeString(q.Answer))
}

func wrongText(left int) string {
	return fmt.Sprintf("❌ Salah, sisa <b>%d</b> percobaan. Coba lagi!", left)
}

func cooldownText(cooldown time.Duration) string {
	return fmt.Sprintf("⏳ Pelan-pelan! Tunggu %d detik sebelum memulai permainan baru.", int(cooldown.Seconds()))
}

func dailyLimitText(daily int) string {
	return fmt.Sprintf("📅 Kamu sudah mencapai batas <b>%d</b> permainan hari ini. Coba lagi besok!", daily)
}

type limitsView struct {
	daily           int
	cooldownSeconds int
}
