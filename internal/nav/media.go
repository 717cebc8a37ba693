package nav

import (
	"net/url"
	"strings"
)

// MaxAlbumSize is the largest number of photos Telegram accepts in one media group.
const MaxAlbumSize = 10

// Chunk splits images into consecutive batches of at most size items, keeping order.
func Chunk(images []string, size int) [][]string {
	if size <= 0 {
		size = MaxAlbumSize
	}
	chunks := make([][]string, 0, (len(images)+size-1)/size)
	for i := 0; i < len(images); i += size {
		chunks = append(chunks, images[i:min(i+size, len(images))])
	}
	return chunks
}

// AssetURL builds the public URL of an image under origin/assets. Each path
// segment is escaped on its own.
func AssetURL(origin, class, folder, file string) string {
	return strings.TrimRight(origin, "/") + "/assets/" +
		url.PathEscape(class) + "/" + url.PathEscape(folder) + "/" + url.PathEscape(file)
}
