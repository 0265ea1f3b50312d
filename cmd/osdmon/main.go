// Osdmon runs one replica of the cluster-membership/topology monitor.
package main

import "lab.nexedi.com/kirr/go123/prog"

var commands = prog.CommandRegistry{
	{Name: "run", Summary: runSummary, Usage: runUsage, Main: runMain},
}

var helpTopics = prog.HelpRegistry{}

func main() {
	prog := prog.MainProg{
		Name:       "osdmon",
		Summary:    "osdmon runs the cluster-membership/topology monitor",
		Commands:   commands,
		HelpTopics: helpTopics,
	}

	prog.Main()
}
