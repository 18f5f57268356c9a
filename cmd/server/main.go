// Command server runs the query-routing answer service.
package main

func main() {
	Execute()
}
