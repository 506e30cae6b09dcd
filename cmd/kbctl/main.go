// Command kbctl ingests documents into a knowledge base and asks questions
// against it using the same configuration as the API server.
package main

func main() {
	Execute()
}
