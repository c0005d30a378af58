// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

// warren-ctl is the command-line client for the warren-sandboxer
// daemon. Each subcommand maps to one lifecycle action on the
// controller socket and prints the response as JSON.
//
// Usage:
//
//	warren-ctl [--socket /run/warren/warren.sock] <command> [flags]
//
// Commands:
//
//	create     register a new sandbox
//	start      start a created sandbox
//	stop       stop a sandbox
//	status     show a sandbox's readiness state
//	wait       block until a sandbox exits
//	prepare    add a container or exec process
//	purge      remove a container or exec process
//	update     reconcile a sandbox against a desired task list
//	shutdown   tear a sandbox down and clean up
//	platform   show the daemon's platform
//	metrics    show sandbox metrics
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/warren-runtime/warren/controller"
	"github.com/warren-runtime/warren/lib/process"
	"github.com/warren-runtime/warren/sandbox"
	"github.com/warren-runtime/warren/service"
)

// defaultTimeout bounds every call except wait, which blocks for the
// sandbox's remaining lifetime.
const defaultTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("warren-ctl", flag.ContinueOnError)
	socket := global.String("socket", "/run/warren/warren.sock", "controller socket path")
	global.SetInterspersed(false)
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		return fmt.Errorf("missing command (create, start, stop, status, wait, prepare, purge, update, shutdown, platform, metrics)")
	}
	command, args := rest[0], rest[1:]

	client := service.NewClient(*socket)
	switch command {
	case "create":
		return runCreate(client, args)
	case "start":
		return runStart(client, args)
	case "stop":
		return runStop(client, args)
	case "status":
		return runStatus(client, args)
	case "wait":
		return runWait(client, args)
	case "prepare":
		return runPrepare(client, args)
	case "purge":
		return runPurge(client, args)
	case "update":
		return runUpdate(client, args)
	case "shutdown":
		return runShutdown(client, args)
	case "platform":
		return runPlatform(client)
	case "metrics":
		return runMetrics(client, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// call issues one bounded request and prints the response.
func call(client *service.Client, action string, request, response any) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := client.Call(ctx, action, request, response); err != nil {
		return err
	}
	return printJSON(response)
}

func printJSON(v any) error {
	if v == nil {
		return nil
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// sandboxIDArg extracts the single positional sandbox id.
func sandboxIDArg(flags *flag.FlagSet) (string, error) {
	if flags.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one sandbox id argument")
	}
	return flags.Arg(0), nil
}

func runCreate(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("create", flag.ContinueOnError)
	netns := flags.String("netns", "", "network namespace path")
	labels := flags.StringToString("label", nil, "sandbox label (key=value, repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	request := controller.CreateRequest{
		SandboxID: id,
		NetNSPath: *netns,
		Labels:    *labels,
	}
	var response controller.CreateResponse
	return call(client, "sandbox.create", request, &response)
}

func runStart(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("start", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	var response controller.StartResponse
	return call(client, "sandbox.start", controller.StartRequest{SandboxID: id}, &response)
}

func runStop(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("stop", flag.ContinueOnError)
	force := flags.BoolP("force", "f", false, "stop without graceful teardown")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	var response controller.StopResponse
	return call(client, "sandbox.stop", controller.StopRequest{SandboxID: id, Force: *force}, &response)
}

func runStatus(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	verbose := flags.BoolP("verbose", "v", false, "include extra status detail")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	var response controller.StatusResponse
	return call(client, "sandbox.status", controller.StatusRequest{SandboxID: id, Verbose: *verbose}, &response)
}

func runWait(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("wait", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	// No timeout: wait blocks until the sandbox exits.
	var response controller.WaitResponse
	if err := client.Call(context.Background(), "sandbox.wait", controller.WaitRequest{SandboxID: id}, &response); err != nil {
		return err
	}
	return printJSON(&response)
}

func runPrepare(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("prepare", flag.ContinueOnError)
	containerID := flags.String("container", "", "container id")
	execID := flags.String("exec", "", "exec process id (empty for the container itself)")
	stdin := flags.String("stdin", "", "stdin path")
	stdout := flags.String("stdout", "", "stdout path")
	stderr := flags.String("stderr", "", "stderr path")
	terminal := flags.Bool("terminal", false, "allocate a terminal")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}
	if *containerID == "" {
		return fmt.Errorf("--container is required")
	}

	request := controller.PrepareRequest{
		SandboxID:   id,
		ContainerID: *containerID,
		ExecID:      *execID,
		Stdin:       *stdin,
		Stdout:      *stdout,
		Stderr:      *stderr,
		Terminal:    *terminal,
	}
	var response controller.PrepareResponse
	return call(client, "sandbox.prepare", request, &response)
}

func runPurge(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("purge", flag.ContinueOnError)
	containerID := flags.String("container", "", "container id")
	execID := flags.String("exec", "", "exec process id (empty for the container itself)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}
	if *containerID == "" {
		return fmt.Errorf("--container is required")
	}

	request := controller.PurgeRequest{
		SandboxID:   id,
		ContainerID: *containerID,
		ExecID:      *execID,
	}
	var response controller.PurgeResponse
	return call(client, "sandbox.purge", request, &response)
}

func runUpdate(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("update", flag.ContinueOnError)
	tasksFile := flags.String("tasks-file", "", "JSON file with the desired task list")
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}
	if *tasksFile == "" {
		return fmt.Errorf("--tasks-file is required")
	}
	payload, err := os.ReadFile(*tasksFile)
	if err != nil {
		return err
	}

	request := controller.UpdateRequest{
		SandboxID: id,
		Fields:    []string{"extensions.tasks"},
		Extensions: map[string]sandbox.Any{
			sandbox.TasksExtensionKey: {TypeURL: "warren.TaskResources", Value: payload},
		},
	}
	var response controller.UpdateResponse
	return call(client, "sandbox.update", request, &response)
}

func runShutdown(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("shutdown", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	var response controller.ShutdownResponse
	return call(client, "sandbox.shutdown", controller.ShutdownRequest{SandboxID: id}, &response)
}

func runPlatform(client *service.Client) error {
	var response controller.PlatformResponse
	return call(client, "sandbox.platform", controller.PlatformRequest{}, &response)
}

func runMetrics(client *service.Client, args []string) error {
	flags := flag.NewFlagSet("metrics", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	id, err := sandboxIDArg(flags)
	if err != nil {
		return err
	}

	var response controller.MetricsResponse
	return call(client, "sandbox.metrics", controller.MetricsRequest{SandboxID: id}, &response)
}
