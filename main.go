package main

import "adaptivealerting/aad/cmd"

func main() {
	cmd.Execute()
}
