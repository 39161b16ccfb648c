package main

import (
	"github.com/Carmen-Shannon/oxy-pipeline/log"
	"github.com/urfave/cli"
)

var logger = log.New("oxy")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
