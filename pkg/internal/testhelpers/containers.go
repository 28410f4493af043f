// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license

package testhelpers

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/testcontainers/testcontainers-go"
)

type stdoutLogConsumer struct{ service string }

func (s stdoutLogConsumer) Accept(l testcontainers.Log) {
	if l.LogType == testcontainers.StderrLog {
		fmt.Print(l.LogType, " ", "service ", s.service, string(l.Content))
	} else {
		fmt.Print("service ", s.service, string(l.Content))
	}
}

func PrintContainerLogs(container testcontainers.Container) {
	logs, err := container.Logs(context.TODO())
	if err != nil {
		fmt.Println("Error fetching logs: ", err)
		return
	}
	defer logs.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(logs)
	if err != nil {
		fmt.Println("Error reading from logs: ", err)
		return
	}

	fmt.Printf("Container logs: \n %s", buf.String())
}

func StopContainer(ctx context.Context, container testcontainers.Container, printLogs bool) {
	if printLogs {
		err := container.StopLogProducer()
		if err != nil {
			fmt.Fprintln(os.Stderr, "couldn't stop log producer", err)
		}
	}

	err := container.Terminate(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "couldn't terminate container", err)
	}
}
