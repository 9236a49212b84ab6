package links

type CreateLinkInput struct {
	URL   string
	Title string
	// OwnerID is empty for anonymous links.
	OwnerID string
}
