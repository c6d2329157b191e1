package digest

// SummaryInstruction precedes the rendered messages of a summary prompt.
const SummaryInstruction = "Please provide a concise summary of the following chat messages:"

// FavouriteInstruction precedes the numbered messages of a favourite prompt.
const FavouriteInstruction = "From the following chat messages, please select your absolute favourite one and explain why. " +
	"Be specific about who sent it and what makes it special or interesting to you:"

// FavouriteReplyFormat tells the model the exact shape of its answer.
const FavouriteReplyFormat = `Please respond in this format:
**Favourite Message:** [quote the exact message]
**From:** [person's name]
**Why I chose it:** [your explanation]`

// Reply headers, already valid MarkdownV2.
const (
	summaryHeaderFormat   = "📝 *Chat Summary* _%s_"
	favouriteHeaderFormat = "💝 *My Favourite Message* _%s_"
)

// Headers used when a reply has to go out without markup.
const (
	summaryPlainHeaderFormat   = "📝 Chat Summary (%s)"
	favouritePlainHeaderFormat = "💝 My Favourite Message (%s)"
)
