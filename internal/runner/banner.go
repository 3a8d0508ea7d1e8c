package runner

import (
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/netrecon/pkg/version"
)

const banner = `
             __
  ___  ___  / /________ _______  ___
 / _ \/ -_)/ __/ __/ -_) __/ _ \/ _ \
/_//_/\__/ \__/_/  \__/\__/\___/_//_/ %s
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf(banner, version.GetVersion())
	gologger.Print().Msgf("\t\tuse only on networks you are authorized to assess\n\n")
}
