package tui

import (
	"fmt"
	"strings"

	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/tui/styles"
	"github.com/adforge/adforge/internal/util"
)

// renderContent renders the output panel for the displayed stage.
func (m Model) renderContent() string {
	sess := m.session()
	if sess == nil {
		return m.contentBox(m.renderWelcome())
	}

	view := m.coord.View()
	if view.ViewingFuture {
		return m.contentBox(styles.Muted.Render(view.Display.Label() + " has not started yet."))
	}
	if m.generating() {
		return m.contentBox(m.renderGenerating(view.Display))
	}

	switch view.Display {
	case pipeline.StageStory:
		return m.contentBox(m.renderStory(sess))
	case pipeline.StageReferenceImage:
		return m.contentBox(m.renderReferenceImages(sess))
	case pipeline.StageStoryboard:
		return m.contentBox(m.renderStoryboard(sess))
	case pipeline.StageVideo:
		return m.contentBox(m.renderVideo(sess))
	case pipeline.StageComplete:
		return m.contentBox(m.renderComplete(sess))
	case pipeline.StageError:
		return m.contentBox(m.renderPipelineError(sess))
	}
	return m.contentBox(styles.Muted.Render("Nothing to show for " + view.Display.Label() + "."))
}

func (m Model) contentBox(content string) string {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return styles.ContentBox.Width(width).Render(content)
}

func (m Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("No active session"))
	b.WriteString("\n\n")
	b.WriteString(styles.Muted.Render("Start a new ad pipeline:\n"))
	b.WriteString(styles.HelpKey.Render("  adforge start \"a 30-second ad for ...\""))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("or resume the previous session:\n"))
	b.WriteString(styles.HelpKey.Render("  adforge resume"))
	return b.String()
}

func (m Model) renderGenerating(stage pipeline.Stage) string {
	return fmt.Sprintf("%s Generating %s...\n\n%s",
		m.spin.View(),
		stage.Label(),
		styles.Muted.Render(stage.Description()))
}

func (m Model) renderStory(sess *pipeline.Session) string {
	story := sess.Outputs.Story
	if story == nil {
		return styles.Muted.Render("No story yet.")
	}
	var b strings.Builder
	b.WriteString(styles.Title.Render(story.Title))
	b.WriteString("\n\n")
	b.WriteString(story.Text)
	return b.String()
}

func (m Model) renderReferenceImages(sess *pipeline.Session) string {
	out := sess.Outputs.ReferenceImage
	if out == nil || len(out.Images) == 0 {
		return styles.Muted.Render("No reference images yet.")
	}

	picked := m.activeSelection()

	var b strings.Builder
	b.WriteString(styles.Title.Render("Reference Images"))
	b.WriteString("\n\n")
	for i, img := range out.Images {
		marker := styles.ItemUnselected.Render("○")
		if picked.Contains(img.Index) {
			marker = styles.ItemSelected.Render("◉")
		}
		line := fmt.Sprintf("%d %s %s", i+1, marker, img.URL)
		if img.Quality > 0 {
			line += styles.Muted.Render(fmt.Sprintf("  (quality %.2f)", img.Quality))
		}
		b.WriteString(util.TruncateANSI(line, m.contentWidth()))
		b.WriteString("\n")
		if img.Prompt != "" {
			b.WriteString(styles.Muted.Render(util.TruncateANSI("    "+img.Prompt, m.contentWidth())))
			b.WriteString("\n")
		}
	}
	if len(picked) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("No image picked - approve uses image 1. Press 1-9 to pick."))
	}
	return b.String()
}

func (m Model) renderStoryboard(sess *pipeline.Session) string {
	out := sess.Outputs.Storyboard
	if out == nil || len(out.Clips) == 0 {
		return styles.Muted.Render("No storyboard yet.")
	}

	picked := m.activeSelection()

	var b strings.Builder
	b.WriteString(styles.Title.Render("Storyboard"))
	b.WriteString("\n\n")
	total := 0.0
	for i, clip := range out.Clips {
		marker := styles.ItemUnselected.Render("○")
		if picked.Contains(clip.Index) {
			marker = styles.ItemSelected.Render("◉")
		}
		line := fmt.Sprintf("%d %s %s %s", i+1, marker,
			clip.Description,
			styles.Muted.Render(fmt.Sprintf("(%s)", util.FormatSeconds(clip.DurationSeconds))))
		b.WriteString(util.TruncateANSI(line, m.contentWidth()))
		b.WriteString("\n")
		total += clip.DurationSeconds
	}
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(fmt.Sprintf("%d clips, %s total", len(out.Clips), util.FormatSeconds(total))))
	return b.String()
}

func (m Model) renderVideo(sess *pipeline.Session) string {
	out := sess.Outputs.Video
	if out == nil {
		return styles.Muted.Render("No video yet.")
	}
	var b strings.Builder
	b.WriteString(styles.Title.Render("Video"))
	b.WriteString("\n\n")
	b.WriteString(out.URL)
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render(util.FormatSeconds(out.DurationSeconds)))
	if out.ThumbnailURL != "" {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("thumbnail: " + out.ThumbnailURL))
	}
	return b.String()
}

func (m Model) renderComplete(sess *pipeline.Session) string {
	var b strings.Builder
	b.WriteString(styles.Secondary.Render("✓ Pipeline complete"))
	if video := sess.Outputs.Video; video != nil {
		b.WriteString("\n\n")
		b.WriteString(video.URL)
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render(util.FormatSeconds(video.DurationSeconds)))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.Muted.Render("Use ← / → to review the stages, or q to quit."))
	return b.String()
}

func (m Model) renderPipelineError(sess *pipeline.Session) string {
	var b strings.Builder
	b.WriteString(styles.Error.Render("✗ Pipeline failed"))
	b.WriteString("\n\n")
	b.WriteString(styles.Muted.Render("The backend reported a failure. Completed stage outputs are still available."))
	return b.String()
}

// activeSelection returns the user's picks when they belong to the
// displayed stage, and nothing otherwise. Stale picks from a previous
// stage never mark items on screen.
func (m Model) activeSelection() pipeline.Selection {
	if m.selectionStage != m.displayStage() {
		return nil
	}
	return m.selection
}

// renderConversation renders the feedback exchange for the current
// stage. The history empties on every stage transition, so this pane
// always shows the conversation about what is on screen.
func (m Model) renderConversation() string {
	sess := m.session()
	if sess == nil || len(sess.Conversation) == 0 {
		return ""
	}

	msgs := sess.Conversation
	if len(msgs) > m.maxConversationLines {
		msgs = msgs[len(msgs)-m.maxConversationLines:]
	}

	var b strings.Builder
	b.WriteString(styles.Subtitle.Render("Conversation"))
	b.WriteString("\n")
	for _, msg := range msgs {
		b.WriteString(util.TruncateANSI(m.renderChatLine(msg), m.contentWidth()))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderChatLine(msg pipeline.ChatMessage) string {
	stamp := ""
	if !msg.Timestamp.IsZero() {
		stamp = styles.Muted.Render(msg.Timestamp.Format("15:04") + " ")
	}
	switch msg.Type {
	case pipeline.MessageUser:
		return stamp + styles.ChatUser.Render("you> ") + msg.Content
	case pipeline.MessageAssistant:
		return stamp + styles.ChatAssistant.Render("ai> ") + msg.Content
	default:
		return stamp + styles.ChatSystem.Render("sys> "+msg.Content)
	}
}

func (m Model) contentWidth() int {
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	return w
}
