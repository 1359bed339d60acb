package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr         string
		ControlToken string
	}
	Session struct {
		ID string
	}
	Loop struct {
		MaxInteractions int
		StopKeywords    []string
		Clarification   string
	}
	Memory struct {
		Capacity int
	}
	Audio struct {
		DeviceID   int
		SampleRate int
	}
	Record struct {
		MaxSeconds int
		SilenceMs  int
		MinRMS     float64
	}
	Trigger struct {
		WakePhrases  []string
		StopPhrases  []string
		SleepPhrases []string
		WindowMs     int
		IntervalMs   int
	}
	STT struct {
		URL            string
		TimeoutSeconds int
	}
	LLM struct {
		URL            string
		APIKey         string
		Model          string
		Persona        string
		TimeoutSeconds int
	}
	TTS struct {
		Command       string
		KillTimeoutMs int
	}
	Journal struct {
		Path string
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.addr", ":8085")
	v.SetDefault("server.control_token", "")

	v.SetDefault("session.id", "")

	v.SetDefault("loop.max_interactions", 3)
	v.SetDefault("loop.stop_keywords", "stop,goodbye,quit,exit")
	v.SetDefault("loop.clarification", "Sorry, I didn't catch that.")

	v.SetDefault("memory.capacity", 3)

	v.SetDefault("audio.device_id", -1)
	v.SetDefault("audio.sample_rate", 16000)

	v.SetDefault("record.max_seconds", 15)
	v.SetDefault("record.silence_ms", 800)
	v.SetDefault("record.min_rms", 500)

	v.SetDefault("trigger.wake_phrases", "hey argo,okay argo")
	v.SetDefault("trigger.stop_phrases", "stop")
	v.SetDefault("trigger.sleep_phrases", "go to sleep")
	v.SetDefault("trigger.window_ms", 2000)
	v.SetDefault("trigger.interval_ms", 500)

	v.SetDefault("stt.url", "http://127.0.0.1:8081/inference")
	v.SetDefault("stt.timeout_seconds", 30)

	v.SetDefault("llm.url", "http://127.0.0.1:11434/v1/chat/completions")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.persona", "butler")
	v.SetDefault("llm.timeout_seconds", 60)

	v.SetDefault("tts.command", "say {text}")
	v.SetDefault("tts.kill_timeout_ms", 50)

	v.SetDefault("journal.path", "")

	// Map envs
	v.BindEnv("server.addr", "ARGO_ADDR")
	v.BindEnv("server.control_token", "ARGO_CONTROL_TOKEN")

	v.BindEnv("session.id", "ARGO_SESSION_ID")

	v.BindEnv("loop.max_interactions", "ARGO_MAX_INTERACTIONS")
	v.BindEnv("loop.stop_keywords", "ARGO_STOP_KEYWORDS")
	v.BindEnv("loop.clarification", "ARGO_CLARIFICATION")

	v.BindEnv("memory.capacity", "ARGO_MEMORY_CAPACITY")

	v.BindEnv("audio.device_id", "ARGO_AUDIO_DEVICE")
	v.BindEnv("audio.sample_rate", "ARGO_SAMPLE_RATE")

	v.BindEnv("record.max_seconds", "ARGO_RECORD_MAX_SECONDS")
	v.BindEnv("record.silence_ms", "ARGO_RECORD_SILENCE_MS")
	v.BindEnv("record.min_rms", "ARGO_RECORD_MIN_RMS")

	v.BindEnv("trigger.wake_phrases", "ARGO_WAKE_PHRASES")
	v.BindEnv("trigger.stop_phrases", "ARGO_STOP_PHRASES")
	v.BindEnv("trigger.sleep_phrases", "ARGO_SLEEP_PHRASES")
	v.BindEnv("trigger.window_ms", "ARGO_TRIGGER_WINDOW_MS")
	v.BindEnv("trigger.interval_ms", "ARGO_TRIGGER_INTERVAL_MS")

	v.BindEnv("stt.url", "ARGO_STT_URL")
	v.BindEnv("stt.timeout_seconds", "ARGO_STT_TIMEOUT_SECONDS")

	v.BindEnv("llm.url", "ARGO_LLM_URL")
	v.BindEnv("llm.api_key", "ARGO_LLM_API_KEY")
	v.BindEnv("llm.model", "ARGO_LLM_MODEL")
	v.BindEnv("llm.persona", "ARGO_PERSONA")
	v.BindEnv("llm.timeout_seconds", "ARGO_LLM_TIMEOUT_SECONDS")

	v.BindEnv("tts.command", "ARGO_TTS_COMMAND")
	v.BindEnv("tts.kill_timeout_ms", "ARGO_TTS_KILL_TIMEOUT_MS")

	v.BindEnv("journal.path", "ARGO_JOURNAL_PATH")

	var c Config
	c.Server.Addr = v.GetString("server.addr")
	c.Server.ControlToken = v.GetString("server.control_token")

	c.Session.ID = v.GetString("session.id")

	c.Loop.MaxInteractions = v.GetInt("loop.max_interactions")
	c.Loop.StopKeywords = splitList(v.GetString("loop.stop_keywords"))
	c.Loop.Clarification = v.GetString("loop.clarification")

	c.Memory.Capacity = v.GetInt("memory.capacity")

	c.Audio.DeviceID = v.GetInt("audio.device_id")
	c.Audio.SampleRate = v.GetInt("audio.sample_rate")

	c.Record.MaxSeconds = v.GetInt("record.max_seconds")
	c.Record.SilenceMs = v.GetInt("record.silence_ms")
	c.Record.MinRMS = v.GetFloat64("record.min_rms")

	c.Trigger.WakePhrases = splitList(v.GetString("trigger.wake_phrases"))
	c.Trigger.StopPhrases = splitList(v.GetString("trigger.stop_phrases"))
	c.Trigger.SleepPhrases = splitList(v.GetString("trigger.sleep_phrases"))
	c.Trigger.WindowMs = v.GetInt("trigger.window_ms")
	c.Trigger.IntervalMs = v.GetInt("trigger.interval_ms")

	c.STT.URL = v.GetString("stt.url")
	c.STT.TimeoutSeconds = v.GetInt("stt.timeout_seconds")

	c.LLM.URL = v.GetString("llm.url")
	c.LLM.APIKey = v.GetString("llm.api_key")
	c.LLM.Model = v.GetString("llm.model")
	c.LLM.Persona = v.GetString("llm.persona")
	c.LLM.TimeoutSeconds = v.GetInt("llm.timeout_seconds")

	c.TTS.Command = v.GetString("tts.command")
	c.TTS.KillTimeoutMs = v.GetInt("tts.kill_timeout_ms")

	c.Journal.Path = v.GetString("journal.path")

	log.Printf("config loaded: addr=%s stt=%s llm=%s model=%s persona=%s max_interactions=%d",
		c.Server.Addr, c.STT.URL, c.LLM.URL, c.LLM.Model, c.LLM.Persona, c.Loop.MaxInteractions)
	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
