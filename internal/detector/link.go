package detector

import (
	"strconv"
	"strings"
)

// Variables are the optional dashboard variables appended to sensor links.
type Variables struct {
	Datastream string `yaml:"datastream"`
	Attribute  string `yaml:"attribute"`
	Normalized bool   `yaml:"normalized"`
}

// Link builds the dashboard link of a channel. The channel is zero-padded
// to the number of digits in count; channels past count link to "All".
func Link(baseURL string, channel, count int, vars *Variables) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString("&var-channel=")

	if channel <= count {
		digits := len(strconv.Itoa(count))
		ch := strconv.Itoa(channel)
		b.WriteString("channel_")
		if pad := digits - len(ch); pad > 0 {
			b.WriteString(strings.Repeat("0", pad))
		}
		b.WriteString(ch)
	} else {
		b.WriteString("All")
	}

	if vars != nil {
		b.WriteString("&var-datastream=")
		b.WriteString(vars.Datastream)
		b.WriteString("&var-attribute=")
		b.WriteString(vars.Attribute)
		b.WriteString("&var-normalized=")
		b.WriteString(strconv.FormatBool(vars.Normalized))
	}
	return b.String()
}
