package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_AllTemplates(t *testing.T) {
	data := Data{
		MentorName:  "Марина",
		ParentName:  "Павел",
		StudentName: "Соня",
		Message:     "Нужна помощь с алгеброй",
	}

	templates := []Template{
		TemplateRequestMentor,
		TemplateRequestParent,
		TemplateAcceptedMentor,
		TemplateAcceptedParent,
		TemplateRejectedMentor,
		TemplateRejectedParent,
		TemplateRequestReminder,
	}

	for _, tpl := range templates {
		t.Run(string(tpl), func(t *testing.T) {
			text, err := Render(tpl, data)
			require.NoError(t, err)
			assert.NotEmpty(t, text)
		})
	}
}

func TestRender_SubstitutesNames(t *testing.T) {
	data := Data{
		MentorName:  "Марина",
		ParentName:  "Павел",
		StudentName: "Соня",
		Message:     "Нужна помощь с алгеброй",
	}

	text, err := Render(TemplateRequestMentor, data)
	require.NoError(t, err)
	assert.Contains(t, text, "Павел")
	assert.Contains(t, text, "Соня")
	assert.Contains(t, text, "Нужна помощь с алгеброй")

	text, err = Render(TemplateAcceptedParent, data)
	require.NoError(t, err)
	assert.Contains(t, text, "Марина")
	assert.Contains(t, text, "Соня")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, err := Render(Template("nope"), Data{})
	assert.Error(t, err)
}

func TestNeedsDecisionButtons(t *testing.T) {
	assert.True(t, NeedsDecisionButtons(TemplateRequestMentor))
	assert.True(t, NeedsDecisionButtons(TemplateRequestReminder))
	assert.False(t, NeedsDecisionButtons(TemplateRequestParent))
	assert.False(t, NeedsDecisionButtons(TemplateAcceptedMentor))
	assert.False(t, NeedsDecisionButtons(TemplateRejectedParent))
}
