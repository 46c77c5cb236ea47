package survey

import (
	"fmt"
	"html"
)

const (
	msgAskName       = "📝 <b>Survei singkat</b>\n\nSiapa nama kamu?"
	msgNameInvalid   = "⚠️ Nama tidak boleh kosong dan maksimal 64 huruf. Siapa nama kamu?"
	msgAskGender     = "Apa jenis kelamin kamu?"
	msgGenderButtons = "Silakan pilih jenis kelamin dengan tombol di bawah ya."
	msgSaveFailed    = "😔 Maaf, data kamu gagal disimpan. Silakan coba lagi nanti dengan /start."
	msgCancelled     = "❎ Survei dibatalkan. Ketik /start untuk memulai lagi."
	msgIdleHint      = "👋 Ketik /start untuk mengisi survei."
	msgHelp          = "ℹ️ Bot ini mengumpulkan survei singkat: nama, umur, dan jenis kelamin.\n\nPerintah: /start, /cancel, /help"
	msgNotUnderstood = "🤔 Maaf, aku tidak mengerti."
)

func askAgeText(name string) string {
	return fmt.Sprintf("Halo, <b>%s</b>! Berapa umur kamu?", html.EscapeString(name))
}

func ageInvalidText(minAge, maxAge int) string {
	return fmt.Sprintf("⚠️ Umur harus berupa angka antara %d dan %d. Berapa umur kamu?", minAge, maxAge)
}

func summaryText(s Submission) string {
	return fmt.Sprintf("✅ Terima kasih! Data kamu tersimpan:\n\nNama: <b>%s</b>\nUmur: <b>%d</b>\nJenis kelamin: <b>%s</b>",
		html.EscapeString(s.Name), s.Age, s.Gender.Label())
}
