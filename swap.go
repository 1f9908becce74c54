package hotswap

// RerenderPath identifies how an adapter swapped the old internal
// instance for the new one during a rerender.
//
// Recorded per rerender for diagnostics and tests; the path taken is an
// adapter decision, never a caller choice.
type RerenderPath string

const (
	// PathTree recreated the instance at the tree marker's position.
	PathTree RerenderPath = "tree"

	// PathReplace replaced the active navigation entry in place, with
	// zero history impact. The preferred page path.
	PathReplace RerenderPath = "replace"

	// PathClearNavigate cleared history and re-navigated to the new
	// page. Fallback when the page is the stack's root entry, where
	// in-place replacement is documented to fail.
	PathClearNavigate RerenderPath = "clear-navigate"

	// PathBackstackSwap swapped the stored page reference inside a
	// back-history entry without triggering navigation.
	PathBackstackSwap RerenderPath = "backstack-swap"

	// PathSkipped means the host reported no navigation frame: a benign
	// detach/dispose race, logged and otherwise ignored.
	PathSkipped RerenderPath = "skipped"

	// PathNone means no rerender has happened yet.
	PathNone RerenderPath = ""
)
