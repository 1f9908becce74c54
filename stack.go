package hotswap

import "log/slog"

// StackAdapter anchors an instance in a navigation-stack host. Non-page
// mount targets fall back to plain tree anchoring; page-shaped targets
// are rerendered through the host's navigation primitives instead of
// tree surgery.
//
// Whether the mounted node is a page is determined once per mount by
// inspecting its shape, and the choice is sticky: an anchor point is
// never reused across the two modes.
type StackAdapter struct {
	tree   *TreeAdapter
	owner  Remounter
	doc    StackDocument
	logger *slog.Logger

	page     Page
	hostBack BackHandler
	lastPath RerenderPath
}

// NewStackAdapter builds a navigation-stack adapter for owner.
func NewStackAdapter(owner Remounter, doc StackDocument, logger *slog.Logger) *StackAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StackAdapter{
		tree:   NewTreeAdapter(owner, doc, logger),
		owner:  owner,
		doc:    doc,
		logger: logger,
	}
}

// Mounted reports whether an anchor point exists (page slot or tree
// marker).
func (a *StackAdapter) Mounted() bool {
	return a.page != nil || a.tree.Mounted()
}

// Page returns the anchored page, or nil when the mount target was not
// page-shaped.
func (a *StackAdapter) Page() Page {
	return a.page
}

// LastPath returns the path the most recent rerender took.
func (a *StackAdapter) LastPath() RerenderPath {
	return a.lastPath
}

// Mount anchors the instance. A page-shaped target becomes the anchor
// point itself and its back-navigation registration is intercepted once:
// the adapter's handler is installed, the host's original kept, so the
// proxy controls whether the instance is destroyed when the user
// navigates back. Anything else defers to tree anchoring. Subsequent
// calls are no-ops.
func (a *StackAdapter) Mount(target Node, anchor Node) error {
	if a.Mounted() {
		a.logger.Debug("hotswap: mount ignored, anchor point exists")
		return nil
	}
	page, ok := target.(Page)
	if !ok {
		return a.tree.Mount(target, anchor)
	}
	a.adoptPage(page)
	return a.owner.AttachInstance(page, nil, nil)
}

// adoptPage records page as the anchor and installs the back handler,
// keeping the host's previous one for delegation.
func (a *StackAdapter) adoptPage(page Page) {
	a.page = page
	a.hostBack = page.SetBackHandler(a.onBack)
}

// onBack runs when the user navigates back away from the anchored page.
// The proxy tears the instance down; the host's own handler is then told
// the teardown already happened.
func (a *StackAdapter) onBack(destroyed bool) {
	if !destroyed && a.owner.HasInstance() {
		a.owner.DiscardInstance()
	}
	if a.hostBack != nil {
		a.hostBack(true)
	}
}

// Rerender swaps the internal instance in place. For non-page anchors
// this is tree rerendering. For pages the adapter recreates the instance
// into a fresh page node and then, depending on where the old page sits:
//
//   - active page with back history: replace the navigation entry in
//     place (zero history impact)
//   - active page at the stack root: clear history and re-navigate, since
//     in-place replacement fails for the root entry
//   - page in back history: swap the stored reference inside its entry
//     without triggering navigation
//
// A page with no current frame, or one the frame no longer holds in its
// active entry or back history, is a benign detach/dispose race: logged,
// nothing thrown, the live instance untouched.
func (a *StackAdapter) Rerender() error {
	if a.page == nil {
		if err := a.tree.Rerender(); err != nil {
			return err
		}
		a.lastPath = PathTree
		return nil
	}

	frame := a.page.Frame()
	if frame == nil {
		a.lastPath = PathSkipped
		a.logger.Debug("hotswap: rerender skipped, page has no frame", "path", string(PathSkipped))
		return nil
	}

	// Locate the old page before anything is torn down: a page the frame
	// no longer references gets no rebuild into a dangling node.
	oldPage := a.page
	active := frame.CurrentPage() == oldPage
	var entry BackstackEntry
	if !active {
		var ok bool
		entry, ok = frame.FindBackstackEntry(oldPage)
		if !ok {
			a.lastPath = PathSkipped
			a.logger.Debug("hotswap: rerendered page not found in frame", "path", string(PathSkipped))
			return nil
		}
	}

	snap, err := a.owner.DetachInstance()
	if err != nil {
		return err
	}
	newPage := a.doc.CreatePage("hotswap-page")
	if err := a.owner.AttachInstance(newPage, nil, snap); err != nil {
		return err
	}

	if active {
		if err := frame.ReplacePage(newPage); err != nil {
			// Root entry: in-place replacement is documented to fail
			// there, so fall back to a clean re-navigation.
			frame.Navigate(newPage, true)
			a.lastPath = PathClearNavigate
		} else {
			a.lastPath = PathReplace
		}
	} else {
		entry.SwapPage(newPage)
		a.lastPath = PathBackstackSwap
	}

	a.adoptPage(newPage)
	return nil
}

// Dispose destroys the instance and releases the anchor. For pages the
// host's original back handler is reinstated.
func (a *StackAdapter) Dispose() error {
	if a.page == nil {
		return a.tree.Dispose()
	}
	if a.owner.HasInstance() {
		a.owner.DiscardInstance()
	}
	a.page.SetBackHandler(a.hostBack)
	a.page = nil
	a.hostBack = nil
	return nil
}
