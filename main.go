// main is the entry point for the equipctl CLI.
package main

import (
	"github.com/chemflow/equipctl/cmd"
	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/iostore"
	"github.com/chemflow/equipctl/internal/logging"
)

func main() {
	cmd.SetStoreManager(iostore.Manager)

	err := cmd.Execute()

	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Cannot stop profiling", stopErr)
	}
	iostore.CloseStores()
	logging.Sync()

	if err != nil {
		contract.LogFatal("Cannot run equipctl", err)
	}
}
