package generator

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalOrder(t *testing.T) {
	order := newNaturalOrder()

	names := []string{"10.jpg", "2.jpg", "1.png", "Б.jpg", "а.jpg", "в10.jpg", "в2.jpg"}
	slices.SortFunc(names, order.Compare)
	assert.Equal(t, []string{"1.png", "2.jpg", "10.jpg", "а.jpg", "Б.jpg", "в2.jpg", "в10.jpg"}, names)

	yo := []string{"ж.png", "ё.png", "е.png"}
	slices.SortFunc(yo, order.Compare)
	assert.Equal(t, []string{"е.png", "ё.png", "ж.png"}, yo)
}

func TestNaturalOrderEdges(t *testing.T) {
	order := newNaturalOrder()
	assert.Equal(t, 0, order.Compare("scan 7.jpg", "scan 7.jpg"))
	assert.Equal(t, -1, order.Compare("1", "1.jpg"))
	assert.Equal(t, 1, order.Compare("1.jpg", "1"))
	assert.Equal(t, -1, order.Compare("007.jpg", "8.jpg"))
	assert.Equal(t, -1, order.Compare("99999999999999999999.jpg", "100000000000000000000.jpg"))
}

func TestNaturalKey(t *testing.T) {
	assert.Equal(t, []string{"", "10", ".jpg"}, naturalKey("10.JPG"))
	assert.Equal(t, []string{"img-", "3", "-", "12"}, naturalKey("IMG-3-12"))
	assert.Equal(t, []string{""}, naturalKey(""))
}
