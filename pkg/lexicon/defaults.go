package lexicon

func group(weight float64, terms ...string) KeywordGroup {
	return KeywordGroup{Terms: terms, Weight: weight}
}

// DefaultTable returns a fresh, compiled copy of the built-in pattern set:
// joy, sadness, anger, fear, surprise and neutral, in that priority order.
func DefaultTable() *Table {
	t := defaultTable()
	if err := t.Compile(); err != nil {
		panic("lexicon: built-in table does not compile: " + err.Error())
	}
	return t
}

func defaultTable() *Table {
	return &Table{
		Intensifiers: []string{
			"very", "extremely", "incredibly", "absolutely", "completely", "totally", "really",
			"so", "quite", "rather", "highly", "tremendously", "enormously", "exceptionally",
			"remarkably", "particularly", "super", "utterly",
		},
		Negators: []string{
			"not", "no", "never", "none", "nothing", "nobody", "nowhere", "neither",
			"hardly", "barely", "scarcely", "rarely", "seldom", "without",
			"don't", "doesn't", "didn't", "isn't", "wasn't", "aren't", "weren't",
			"cannot", "can't", "won't", "wouldn't", "shouldn't",
		},
		SarcasmMarkers: []string{
			"yeah right", "sure", "great job", "fantastic", "as if", "nice going",
			"oh great", "just great", "just wonderful", "just perfect",
			"big surprise", "what a surprise", "thanks a lot",
		},
		Patterns: []Pattern{
			{
				Label:   "joy",
				Valence: ValencePositive,
				KeywordGroups: []KeywordGroup{
					group(1.0, "happy", "excited", "wonderful", "amazing", "fantastic", "great", "awesome",
						"love", "enjoy", "delighted", "thrilled", "cheerful", "joyful", "pleased", "glad",
						"elated", "brilliant", "excellent", "perfect"),
					group(0.6, "yay", "hooray", "wow", "yes", "definitely", "absolutely", "certainly",
						"incredible", "terrific", "outstanding", "superb", "magnificent", "marvelous"),
					group(0.8, "celebrate", "celebration", "party", "fun", "laughter", "smile", "laughing",
						"smiling", "cheering", "upbeat", "positive", "optimistic"),
				},
				ContextPhrases: []string{"can't wait", "so happy", "best day", "love it", "made my day", "over the moon"},
				Voice: VoiceRanges{
					PitchMin: 160, PitchMax: 380, PitchOptimal: 240,
					EnergyMin: 0.5, EnergyMax: 1.0,
					SpeechRateMin: 1.0, SpeechRateMax: 2.0,
					TonalVariationMin: 0.6, TonalVariationMax: 1.0,
				},
				TextWeight:  0.35,
				VoiceWeight: 0.65,
			},
			{
				Label:   "sadness",
				Valence: ValenceNegative,
				KeywordGroups: []KeywordGroup{
					group(1.0, "sad", "depressed", "upset", "disappointed", "hurt", "miserable", "unhappy",
						"sorrowful", "gloomy", "dejected", "melancholy", "blue", "down", "low"),
					group(0.8, "terrible", "awful", "horrible", "devastating", "heartbreaking", "tragic",
						"unfortunate", "hopeless", "despair", "lonely", "empty", "broken"),
					group(0.9, "crying", "tears", "weeping", "sobbing", "grieving", "mourning", "sorrow",
						"regret", "loss", "grief", "anguish", "pain", "suffering"),
					group(0.5, "failed", "failure", "lost", "losing", "gone", "dead", "died", "death",
						"goodbye", "farewell", "end", "over", "finished"),
					group(1.2, "nobody cares", "no one understands", "feel alone", "all alone", "can't go on",
						"give up", "what's the point", "worthless", "useless"),
					group(0.6, "miss you", "missing", "longing", "wish", "if only", "should have",
						"could have", "mistake", "fault", "blame"),
				},
				ContextPhrases: []string{"feel alone", "miss you", "give up", "heart is broken", "let me down", "what's the point"},
				Voice: VoiceRanges{
					PitchMin: 80, PitchMax: 240, PitchOptimal: 140,
					EnergyMin: 0.05, EnergyMax: 0.45,
					SpeechRateMin: 0.4, SpeechRateMax: 1.1,
					TonalVariationMin: 0.1, TonalVariationMax: 0.5,
				},
				TextWeight:  0.35,
				VoiceWeight: 0.65,
			},
			{
				Label:   "anger",
				Valence: ValenceNegative,
				KeywordGroups: []KeywordGroup{
					group(1.0, "angry", "mad", "furious", "irritated", "annoyed", "frustrated", "outraged",
						"livid", "enraged", "irate", "hostile", "pissed", "rage", "raging", "riled",
						"steamed", "boiling"),
					group(1.0, "hate", "disgusted", "appalled", "infuriated", "incensed", "aggravated",
						"fed up", "sick of", "can't stand", "had enough", "done with"),
					group(0.7, "damn", "hell", "stupid", "ridiculous", "unacceptable", "outrageous",
						"bullshit", "crap", "nonsense", "idiotic", "moronic", "insane", "crazy", "pathetic"),
					group(0.6, "fight", "violence", "kill", "destroy", "smash", "break", "punch", "hit",
						"attack", "warfare", "battle", "crush", "demolish", "annihilate"),
					group(1.2, "what the hell", "what the fuck", "are you kidding me", "you've got to be kidding",
						"this is bullshit", "enough is enough"),
					group(0.9, "shut up", "get lost", "go away", "leave me alone", "i don't care", "whatever",
						"screw this", "screw you", "forget it"),
					group(0.6, "why me", "why now", "not again", "seriously", "come on", "give me a break",
						"this sucks", "this is terrible"),
					group(0.8, "listen here", "how dare you", "who do you think", "you better", "i swear",
						"mark my words", "i'll show you"),
					group(0.6, "threatening", "warning", "demanding", "insisting", "ordering", "commanding",
						"forcing", "making me"),
					group(0.3, "hurry up", "move it", "get on with it", "speed up", "faster", "now",
						"immediately", "right now", "this instant"),
					group(0.9, "waited long enough", "wasting my time", "taking forever", "slow as hell",
						"what's taking so long"),
					group(1.0, "your fault", "you did this", "you caused", "you're responsible",
						"you screwed up", "you messed up", "you ruined"),
					group(0.5, "always doing", "never listen", "don't understand", "don't get it", "typical",
						"figures", "of course"),
					group(1.5, "absolutely furious", "completely mad", "totally pissed", "extremely angry",
						"really mad", "so angry", "very upset"),
					group(0.4, "can't believe", "unbelievable", "impossible", "ridiculous", "outrageous",
						"insane", "crazy", "nuts"),
				},
				ContextPhrases: []string{"how dare you", "enough is enough", "fed up", "sick of", "had enough", "are you kidding me"},
				Voice: VoiceRanges{
					PitchMin: 200, PitchMax: 500, PitchOptimal: 350,
					EnergyMin: 0.75, EnergyMax: 1.0,
					SpeechRateMin: 1.2, SpeechRateMax: 3.0,
					TonalVariationMin: 0.8, TonalVariationMax: 1.0,
					SpikeMinCount: 3,
				},
				TextWeight:  0.3,
				VoiceWeight: 0.7,
			},
			{
				Label:   "fear",
				Valence: ValenceNegative,
				KeywordGroups: []KeywordGroup{
					group(1.0, "afraid", "scared", "terrified", "frightened", "anxious", "worried", "nervous",
						"panicked", "alarmed", "concerned", "fearful", "petrified", "horrified"),
					group(0.8, "dangerous", "risky", "threatening", "unsafe", "insecure", "vulnerable",
						"terror", "horror", "nightmare", "phobia", "creepy", "spooky", "eerie"),
					group(0.7, "what if", "might happen", "could go wrong", "disaster", "catastrophe",
						"emergency", "crisis", "panic", "stress", "anxiety", "dread", "doom"),
					group(0.9, "help me", "save me", "someone help", "call for help", "need help", "rescue",
						"escape", "run away", "hide", "get away"),
					group(0.8, "can't breathe", "heart racing", "shaking", "trembling", "sweating",
						"freezing", "paralyzed", "stuck", "trapped", "cornered"),
					group(0.5, "monster", "ghost", "demon", "evil", "dark", "darkness", "shadow", "unknown",
						"stranger", "stalker", "killer", "death", "dying"),
				},
				ContextPhrases: []string{"what if", "help me", "can't breathe", "scared to death", "something bad", "i'm afraid"},
				Voice: VoiceRanges{
					PitchMin: 180, PitchMax: 480, PitchOptimal: 340,
					EnergyMin: 0.2, EnergyMax: 0.9,
					SpeechRateMin: 1.1, SpeechRateMax: 2.8,
					TonalVariationMin: 0.4, TonalVariationMax: 1.0,
				},
				TextWeight:  0.25,
				VoiceWeight: 0.75,
			},
			{
				Label:   "surprise",
				Valence: ValencePositive,
				KeywordGroups: []KeywordGroup{
					group(1.0, "surprised", "shocked", "amazed", "astonished", "stunned", "bewildered",
						"confused", "unexpected", "sudden", "startled", "flabbergasted"),
					group(0.9, "suddenly", "all of a sudden", "out of nowhere", "didn't expect", "never thought",
						"can't believe", "who would have thought"),
					group(0.6, "wow", "oh my", "really", "seriously", "no way", "unbelievable", "incredible",
						"extraordinary", "mind-blowing", "jaw-dropping"),
					group(0.2, "what", "how", "when", "where", "why", "huh", "eh", "wait", "hold on",
						"hang on", "stop", "pause", "excuse me"),
					group(0.6, "never seen", "first time", "brand new", "just discovered", "just found out",
						"just learned", "just realized", "just noticed"),
					group(0.7, "plot twist", "curveball", "bombshell", "revelation", "discovery",
						"breakthrough", "game changer", "turning point"),
				},
				ContextPhrases: []string{"no way", "oh my god", "didn't expect", "out of nowhere", "can't believe", "who knew"},
				Voice: VoiceRanges{
					PitchMin: 200, PitchMax: 550, PitchOptimal: 400,
					EnergyMin: 0.3, EnergyMax: 1.0,
					SpeechRateMin: 0.6, SpeechRateMax: 2.2,
					TonalVariationMin: 0.5, TonalVariationMax: 1.0,
				},
				TextWeight:  0.2,
				VoiceWeight: 0.8,
			},
			{
				Label:   "neutral",
				Valence: ValenceNeutral,
				KeywordGroups: []KeywordGroup{
					group(0.6, "okay", "fine", "normal", "regular", "standard", "typical", "usual",
						"ordinary", "average", "alright"),
					group(0.3, "just", "simply", "basically", "essentially", "generally", "probably",
						"maybe", "perhaps", "suppose"),
					group(0.3, "think", "believe", "consider", "assume", "imagine", "understand", "know",
						"see", "hear"),
				},
				ContextPhrases: []string{"as usual", "i think", "for now", "no big deal"},
				Voice: VoiceRanges{
					PitchMin: 140, PitchMax: 280, PitchOptimal: 200,
					EnergyMin: 0.2, EnergyMax: 0.7,
					SpeechRateMin: 0.8, SpeechRateMax: 1.4,
					TonalVariationMin: 0.2, TonalVariationMax: 0.6,
				},
				TextWeight:  0.5,
				VoiceWeight: 0.5,
			},
		},
	}
}
