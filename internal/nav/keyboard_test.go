package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/topicbot/core/telegram/callbacks"
	"github.com/m3rciful/topicbot/core/telegram/keyboard"
)

func TestClassPickerPairsClassesAndRoundTrips(t *testing.T) {
	cat := testCatalogue(t)
	markup := ClassPicker(cat, "6")

	assert.Equal(t, []int{2, 1}, rowSizes(markup))
	assert.Equal(t, []string{
		keyboard.Pad("5 класс", 4, 4) + "|class:5",
		keyboard.Pad("6 класс ✅", 4, 4) + "|class:6",
		keyboard.Pad("9 класс", 4, 4) + "|class:9",
	}, texts(markup))

	for _, data := range callbacks.Data(markup) {
		tok, err := ParseToken(data)
		require.NoError(t, err)
		assert.Equal(t, ActionClass, tok.Action)
		assert.True(t, cat.HasClass(tok.Class))
	}
}

func TestTopicPickerListsTopicsInOrder(t *testing.T) {
	markup := TopicPicker(testCatalogue(t), "5")
	assert.Equal(t, []string{
		keyboard.Pad("Клетка", 4, 4) + "|topic:5:3",
		keyboard.Pad("Параграф 7", 4, 4) + "|topic:5:7",
		keyboard.Pad("Ткани", 4, 4) + "|topic:5:8",
		keyboard.Pad("Органы", 4, 4) + "|topic:5:14",
		keyboard.Pad("⬅️ Другой класс", 3, 3) + "|menu",
	}, texts(markup))
	assert.Equal(t, []int{1, 1, 1, 1, 1}, rowSizes(markup))
}

func TestTopicPickerForEmptyClassOnlyChangesClass(t *testing.T) {
	markup := TopicPicker(testCatalogue(t), "9")
	assert.Equal(t, []string{keyboard.Pad("⬅️ Другой класс", 3, 3) + "|menu"}, texts(markup))
}

func TestTopicDetailSingleLinksAndNeighbours(t *testing.T) {
	markup := TopicDetail(testCatalogue(t), "5", 3, DisplayState{TestsExpanded: true})
	assert.Equal(t, []string{
		keyboard.Pad("✅ Пройти тест", 4, 4) + "|https://forms.example.org/3",
		keyboard.Pad("⬅️ Назад", 3, 3) + "|back-to-topics:5",
		keyboard.Pad("➡️ Следующая тема", 2, 2) + "|topic:5:7",
		keyboard.Pad("🏠 Меню", 3, 3) + "|menu",
	}, texts(markup))
	assert.Equal(t, []int{1, 2, 1}, rowSizes(markup))
}

func TestTopicDetailNavigationFollowsOrderNotArithmetic(t *testing.T) {
	cat := testCatalogue(t)

	mid := TopicDetail(cat, "5", 7, DisplayState{})
	assert.True(t, hasToken(mid, TopicToken("5", 3)))
	assert.True(t, hasToken(mid, TopicToken("5", 8)))
	assert.False(t, hasToken(mid, TopicToken("5", 6)))

	last := TopicDetail(cat, "5", 14, DisplayState{})
	assert.True(t, hasToken(last, TopicToken("5", 8)))
	assert.False(t, hasToken(last, TopicToken("5", 15)))

	missing := TopicDetail(cat, "5", 99, DisplayState{})
	assert.Equal(t, []int{1, 1}, rowSizes(missing))
}

func TestTopicDetailAccordions(t *testing.T) {
	cat := testCatalogue(t)

	collapsed := TopicDetail(cat, "5", 14, DisplayState{})
	assert.Equal(t, []string{
		keyboard.Pad("✅ Пройти тест", 4, 4) + "|tests:5:14:open",
		keyboard.Pad("📎 Доп. источники", 4, 4) + "|sources:5:14:open",
		keyboard.Pad("⬅️ Назад", 3, 3) + "|back-to-topics:5",
		keyboard.Pad("⬅️ Предыдущая тема", 2, 2) + "|topic:5:8",
		keyboard.Pad("🏠 Меню", 3, 3) + "|menu",
	}, texts(collapsed))

	expanded := TopicDetail(cat, "5", 14, DisplayState{TestsExpanded: true, SourcesExpanded: true})
	assert.Equal(t, []string{
		keyboard.Pad("🟢 Базовая сложность", 4, 4) + "|https://forms.example.org/14b",
		keyboard.Pad("🔴 Повышенная сложность", 4, 4) + "|https://forms.example.org/14a",
		keyboard.Pad("⬅️ Назад", 3, 3) + "|tests:5:14:close",
		keyboard.Pad("Учебник", 4, 4) + "|https://example.org/book",
		keyboard.Pad("Видео", 4, 4) + "|https://example.org/video",
		keyboard.Pad("⬅️ Назад", 3, 3) + "|sources:5:14:close",
		keyboard.Pad("⬅️ Назад", 3, 3) + "|back-to-topics:5",
		keyboard.Pad("⬅️ Предыдущая тема", 2, 2) + "|topic:5:8",
		keyboard.Pad("🏠 Меню", 3, 3) + "|menu",
	}, texts(expanded))
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 2, 1}, rowSizes(expanded))
}

func TestHomeOnlyAndOpenBot(t *testing.T) {
	assert.Equal(t, []string{keyboard.Pad("🏠 Меню", 3, 3) + "|menu"}, texts(HomeOnly()))
	assert.Equal(t, []string{keyboard.Pad("Открыть бота", 4, 4) + "|https://t.me/topic_bot"}, texts(OpenBot("https://t.me/topic_bot")))
}
