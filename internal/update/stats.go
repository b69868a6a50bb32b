package update

func (m Model) onStatsLoaded(msg StatsLoadedMsg) Model {
	if msg.Err != nil {
		m.Status = StatusBar{Text: "load stats: " + msg.Err.Error(), IsError: true}
		return m
	}
	m.Daily = msg.Daily
	m.Usage = msg.Usage
	m.StatsLoaded = true
	return m
}

// onFocusRecorded folds the server's updated day total into the chart.
func (m Model) onFocusRecorded(msg FocusRecordedMsg) Model {
	if msg.Err != nil {
		m.logger.Warn("record focus session failed", "error", msg.Err)
		m.Status = StatusBar{Text: "focus session not recorded: " + msg.Err.Error(), IsError: true}
		return m
	}
	for i := range m.Daily {
		if m.Daily[i].Day == msg.Point.Day {
			m.Daily[i] = msg.Point
			return m
		}
	}
	return m
}
