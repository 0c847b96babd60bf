// Package main implements the threshold decryption node.
//
//  tdec --config ~/.tdec key import --committee committee.yaml --share share.key
//  tdec --config ~/.tdec key show
//  tdec --config ~/.tdec start --listen 127.0.0.1:8080 --workers 4
//
// The settings of the start command can also be written in node.toml inside
// the config folder.
package main

import (
	"fmt"
	"io"
	"os"

	"go.dedis.ch/tdec/cli/node"
	configctl "go.dedis.ch/tdec/config/controller"
	keysctl "go.dedis.ch/tdec/keys/controller"
	proxyctl "go.dedis.ch/tdec/proxy/http/controller"
	servicectl "go.dedis.ch/tdec/service/controller"
)

type config struct {
	Channel chan os.Signal
	Writer  io.Writer
}

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, config{Writer: os.Stdout})
}

func runWithCfg(args []string, cfg config) error {
	builder := node.NewBuilderWithCfg(
		cfg.Channel,
		cfg.Writer,
		configctl.NewController(),
		keysctl.NewController(),
		proxyctl.NewController(),
		servicectl.NewController(),
	)

	app := builder.Build()

	return app.Run(args)
}
