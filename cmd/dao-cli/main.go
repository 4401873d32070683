package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		// Exit codes 2 and up carry the error kind
		if kind, ok := multisig.KindOf(err); ok {
			os.Exit(int(kind.ExternalCode()) + 2)
		}
		os.Exit(1)
	}
}
