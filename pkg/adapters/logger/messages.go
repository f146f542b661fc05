package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("es", l10n.LexiconMap{
		// Session
		"Session %s started":                 "Sesión %s iniciada",
		"Reading %s":                         "Leyendo %s",
		"Processed %d frames":                "Frames procesados: %d",
		"First frame: %dx%d":                 "Primer frame: %dx%d",
		"Skipping frame %d: %v":              "Frame %d descartado: %v",
		"Frame %d: %s failed: %v":            "Frame %d: falló %s: %v",
		"Stream failed: %v":                  "Error en la transmisión: %v",
		"Failed to open stream: %v":          "No se pudo abrir la transmisión: %v",
		"Session ended (%s) after %d frames": "Sesión terminada (%s) tras %d frames",
		"Stream finished":                    "Transmisión finalizada",
		"Interrupted, shutting down...":      "Interrumpido, cerrando...",
		"Failed to save session JSON: %v":    "No se pudo guardar el JSON de la sesión: %v",

		// Recording
		"Recording %dx%d to %s":          "Grabando %dx%d en %s",
		"Recording saved: %s (%d bytes)": "Grabación guardada: %s (%d bytes)",
		"Failed to finish recording: %v": "No se pudo finalizar la grabación: %v",
		"Failed to write output: %v":     "No se pudo escribir la salida: %v",

		// Summary
		"Summary saved to %s":         "Resumen guardado en %s",
		"Failed to write summary: %v": "No se pudo escribir el resumen: %v",

		// Stages
		"Scaling frame %d from %dx%d to %dx%d":     "Escalando frame %d de %dx%d a %dx%d",
		"Detected %d objects (%d matching pixels)": "Detectados %d objetos (%d píxeles coincidentes)",
		"Annotated %d objects, %d bytes":           "Anotados %d objetos, %d bytes",

		// Camera
		"Capturing %s at %dx%d":         "Capturando %s a %dx%d",
		"Timed out waiting for a frame": "Tiempo de espera agotado para un frame",

		// Preview
		"Preview available at http://%s":        "Vista previa disponible en http://%s",
		"Preview server stopped: %v":            "Servidor de vista previa detenido: %v",
		"Failed to stop preview server: %v":     "No se pudo detener la vista previa: %v",
		"Client %s connected (%s, %d total)":    "Cliente %s conectado (%s, %d en total)",
		"Client %s disconnected (%d remaining)": "Cliente %s desconectado (quedan %d)",
		"Dropped slow %s client %s":             "Cliente %s lento descartado: %s",
		"Notified systemd":                      "systemd notificado",
		"systemd notify failed: %v":             "Falló la notificación a systemd: %v",
	})

	l10n.Register("ja", l10n.LexiconMap{
		// Session
		"Session %s started":                 "セッション %s を開始しました",
		"Reading %s":                         "%s を読み込み中",
		"Processed %d frames":                "%d フレームを処理しました",
		"First frame: %dx%d":                 "最初のフレーム: %dx%d",
		"Skipping frame %d: %v":              "フレーム %d をスキップ: %v",
		"Frame %d: %s failed: %v":            "フレーム %d: %s に失敗: %v",
		"Stream failed: %v":                  "ストリームエラー: %v",
		"Failed to open stream: %v":          "ストリームを開けませんでした: %v",
		"Session ended (%s) after %d frames": "セッション終了 (%s): %d フレーム",
		"Stream finished":                    "ストリームが終了しました",
		"Interrupted, shutting down...":      "中断されました。シャットダウン中...",
		"Failed to save session JSON: %v":    "セッションJSONの保存に失敗しました: %v",

		// Recording
		"Recording %dx%d to %s":          "%dx%d で %s に録画中",
		"Recording saved: %s (%d bytes)": "録画を保存しました: %s (%d バイト)",
		"Failed to finish recording: %v": "録画の終了に失敗しました: %v",
		"Failed to write output: %v":     "出力の書き込みに失敗しました: %v",

		// Summary
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %v": "サマリーの書き込みに失敗しました: %v",

		// Stages
		"Scaling frame %d from %dx%d to %dx%d":     "フレーム %d を %dx%d から %dx%d に縮小",
		"Detected %d objects (%d matching pixels)": "%d 個の物体を検出 (一致ピクセル %d)",
		"Annotated %d objects, %d bytes":           "%d 個の物体を描画, %d バイト",

		// Camera
		"Capturing %s at %dx%d":         "%s を %dx%d でキャプチャ中",
		"Timed out waiting for a frame": "フレーム待機がタイムアウトしました",

		// Preview
		"Preview available at http://%s":        "プレビュー: http://%s",
		"Preview server stopped: %v":            "プレビューサーバーが停止しました: %v",
		"Failed to stop preview server: %v":     "プレビューサーバーの停止に失敗しました: %v",
		"Client %s connected (%s, %d total)":    "クライアント %s が接続 (%s, 計 %d)",
		"Client %s disconnected (%d remaining)": "クライアント %s が切断 (残り %d)",
		"Dropped slow %s client %s":             "遅い %s クライアント %s を切断しました",
		"Notified systemd":                      "systemd に通知しました",
		"systemd notify failed: %v":             "systemd への通知に失敗しました: %v",
	})
}
