package file

// Well-known object namespaces.
const (
	NamespaceNewsImages = "news-images"
	NamespaceBlogImages = "blog-images"
	NamespaceWasteScans = "waste-scans"
	namespaceDefault    = "files"
)
