package state

// Deep-copy helpers. The persistence engine externalizes media on a clone so
// the live tree is never mutated mid-save; every mutator likewise hands the
// saver a clone taken under its lock.

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	if m.RepliedTo != nil {
		r := *m.RepliedTo
		out.RepliedTo = &r
	}
	if m.RepliedToStory != nil {
		s := m.RepliedToStory.Clone()
		out.RepliedToStory = &s
	}
	if m.Storyboard != nil {
		out.Storyboard = make([]StoryboardPanel, len(m.Storyboard))
		copy(out.Storyboard, m.Storyboard)
	}
	if m.Shotlist != nil {
		sl := *m.Shotlist
		if m.Shotlist.Items != nil {
			sl.Items = make([]ShotlistItem, len(m.Shotlist.Items))
			copy(sl.Items, m.Shotlist.Items)
		}
		out.Shotlist = &sl
	}
	return out
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// Clone returns a copy of the story item.
func (s StoryItem) Clone() StoryItem {
	return s
}

func cloneStories(stories []StoryItem) []StoryItem {
	if stories == nil {
		return nil
	}
	out := make([]StoryItem, len(stories))
	copy(out, stories)
	return out
}

// Clone returns a deep copy of the user profile.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Stories = cloneStories(u.Stories)
	return &out
}

// Clone returns a deep copy of the contact.
func (c *AIContact) Clone() *AIContact {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = cloneMessages(c.Messages)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the settings.
func (s ImageSettings) Clone() ImageSettings {
	out := s
	out.SubjectRefURLs = cloneStrings(s.SubjectRefURLs)
	out.SceneryRefURLs = cloneStrings(s.SceneryRefURLs)
	out.StyleRefURLs = cloneStrings(s.StyleRefURLs)
	return out
}

// Clone returns a deep copy of the session.
func (s ImageCreatorSession) Clone() ImageCreatorSession {
	return ImageCreatorSession{
		Messages:        cloneMessages(s.Messages),
		GeneratedImages: cloneStrings(s.GeneratedImages),
		Settings:        s.Settings.Clone(),
	}
}

// Clone returns a deep copy of the session.
func (s RemoveBgSession) Clone() RemoveBgSession {
	return RemoveBgSession{Messages: cloneMessages(s.Messages)}
}

// Clone returns a deep copy of the session.
func (s CreatorToolsSession) Clone() CreatorToolsSession {
	return CreatorToolsSession{
		Messages: cloneMessages(s.Messages),
		Settings: s.Settings,
	}
}

// Clone returns a deep copy of the session.
func (s VideoGenSession) Clone() VideoGenSession {
	return VideoGenSession{
		Messages: cloneMessages(s.Messages),
		Settings: s.Settings,
	}
}

// Clone returns a deep copy of the whole tree.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	out := &AppState{
		User:         s.User.Clone(),
		ImageCreator: s.ImageCreator.Clone(),
		RemoveBg:     s.RemoveBg.Clone(),
		CreatorTools: s.CreatorTools.Clone(),
		VideoGen:     s.VideoGen.Clone(),
		ActiveChat:   s.ActiveChat,
		ActiveScreen: s.ActiveScreen,
	}
	if s.Contacts != nil {
		out.Contacts = make([]*AIContact, len(s.Contacts))
		for i, c := range s.Contacts {
			out.Contacts[i] = c.Clone()
		}
	}
	return out
}
