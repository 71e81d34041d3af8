// Package cmd holds the zmx command line surface.
package cmd

import (
	"github.com/RavuAlHemio/zmx/internal/config"
	"github.com/jessevdk/go-flags"
)

type Zmx struct {
	Profile string `short:"p" long:"profile" description:"the AWS profile to use; takes precedence over .zmx settings"`

	List              List              `command:"list" alias:"ls" description:"list the entries of ZIP archives"`
	MakeExecutable    MakeExecutable    `command:"make-executable" alias:"mx" description:"give ZIP entries the Unix executable permission"`
	MakeNotExecutable MakeNotExecutable `command:"make-not-executable" alias:"mnx" description:"remove the Unix executable permission from ZIP entries"`
}

func NewParser() (*flags.Parser, error) {
	opts := &Zmx{}

	p := flags.NewNamedParser("zmx", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		config.DefaultLoader.Profile = opts.Profile
		return command.Execute(args)
	}

	return p, nil
}
