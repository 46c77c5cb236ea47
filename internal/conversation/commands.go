package conversation

// Commands understood by the engines. The transport registers them with Telegram.
const (
	CmdStart  = "/start"
	CmdHelp   = "/help"
	CmdStats  = "/stats"
	CmdMenu   = "/menu"
	CmdCancel = "/cancel"
)

// Button tag names. Payload-carrying buttons use "name:payload".
const (
	TagCategory = "category"
	TagMenu     = "menu"
	TagHelp     = "help"
	TagStats    = "stats"
	TagGender   = "gender"
)
