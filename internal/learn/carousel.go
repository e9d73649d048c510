package learn

// Carousel is a fixed list of embeddable video URLs browsed with
// wrap-around.
type Carousel struct {
	videos []string
}

func NewCarousel(videos []string) Carousel {
	return Carousel{videos: append([]string(nil), videos...)}
}

func (c Carousel) Len() int { return len(c.videos) }

// At returns the video at i, normalized into range.
func (c Carousel) At(i int) string {
	if len(c.videos) == 0 {
		return ""
	}
	return c.videos[c.Index(i)]
}

func (c Carousel) Next(i int) int { return c.Index(i + 1) }

func (c Carousel) Prev(i int) int { return c.Index(i - 1) }

// Index normalizes i into range.
func (c Carousel) Index(i int) int {
	n := len(c.videos)
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}
