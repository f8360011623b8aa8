package pipeline

// defaultDestination receives every document without a dedicated route.
const defaultDestination = "General Archive"

// routeDestinations maps classification labels to routing targets.
var routeDestinations = map[string]string{
	"Invoice":  "Accounting",
	"Contract": "Legal",
	"Resume":   "HR",
}

func destinationFor(label string) string {
	if dest, ok := routeDestinations[label]; ok {
		return dest
	}
	return defaultDestination
}
