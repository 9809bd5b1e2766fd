// Command llmdb builds and queries the LLM provider and model catalog.
package main

import "github.com/fbettag/llmdb/internal/cli"

func main() {
	cli.Execute()
}
