package questions

var builtin = map[Category][]Question{
	Math: {
		{Text: "Berapa hasil dari <b>7 × 8</b>?", Answer: "56", Difficulty: Easy},
		{Text: "Berapa hasil dari <b>15 + 27</b>?", Answer: "42", Difficulty: Easy},
		{Text: "Berapa hasil dari <b>144 ÷ 12</b>?", Answer: "12", Difficulty: Easy},
		{Text: "Berapa hasil dari <b>(9 × 6) − 18</b>?", Answer: "36", Difficulty: Medium},
		{Text: "Berapa akar kuadrat dari <b>225</b>?", Answer: "15", Difficulty: Medium},
		{Text: "Berapa hasil dari <b>2 pangkat 10</b>?", Answer: "1024", Difficulty: Hard},
		{Text: "Jika <b>3x + 7 = 31</b>, berapa nilai x?", Answer: "8", Difficulty: Hard},
	},
	Riddle: {
		{Text: "Aku punya kaki tapi tidak bisa berjalan. Aku punya punggung tapi tidak bisa tidur. Apakah aku?", Answer: "kursi", Difficulty: Easy},
		{Text: "Semakin banyak diambil, semakin besar dia. Apakah itu?", Answer: "lubang", Difficulty: Medium},
		{Text: "Punya banyak gigi tapi tidak pernah menggigit. Apakah itu?", Answer: "sisir", Difficulty: Easy},
		{Text: "Selalu datang tapi tidak pernah tiba. Apakah itu?", Answer: "besok", Difficulty: Hard},
		{Text: "Punya leher tapi tidak punya kepala. Apakah itu?", Answer: "botol", Difficulty: Medium},
	},
	Logic: {
		{Text: "Lanjutkan deret: <code>2, 4, 8, 16, ...</code>", Answer: "32", Difficulty: Easy},
		{Text: "Ayah Budi punya 5 anak: Nana, Nene, Nini, Nono. Siapa nama anak kelima?", Answer: "budi", Difficulty: Medium},
	},
}
