package services

import (
	"testing"

	"puzzle2profit/models"

	"github.com/stretchr/testify/assert"
)

func TestCurriculumTopics(t *testing.T) {
	topics := CurriculumTopics()
	assert.Len(t, topics, 28)
	assert.Equal(t, "AI-powered no-code development platforms for rapid MVP creation", topics[0])
	assert.Equal(t, "AI-driven strategic planning and goal tracking systems", topics[27])
}

func TestNextTopic(t *testing.T) {
	curriculum := []string{"one", "two", "three"}

	assert.Equal(t, "one", NextTopic(curriculum, nil))
	assert.Equal(t, "three", NextTopic(curriculum, []string{"two", "one"}))
	assert.Equal(t, "two", NextTopic(curriculum, []string{"one", "custom topic"}))
	// Nach einem vollen Durchlauf beginnt der Zyklus von vorn.
	assert.Equal(t, "one", NextTopic(curriculum, []string{"one", "two", "three"}))
	assert.Equal(t, "two", NextTopic(curriculum, []string{"one", "two", "three", "one"}))
	assert.Equal(t, "", NextTopic(nil, []string{"one"}))
}

func TestPathConstraints(t *testing.T) {
	assert.Empty(t, pathConstraints(nil))
	assert.Contains(t, pathConstraints(&DefaultPaths[0]), "ONLY recommend NO-CODE and LOW-CODE tools")
	assert.Contains(t, pathConstraints(&DefaultPaths[1]), "ONLY recommend AI API and DEVELOPER tools")
	assert.Contains(t, pathConstraints(&models.Path{Slug: "c", Name: "Path C", TechStackFocus: "hardware"}), "Path C focuses on hardware")
}
