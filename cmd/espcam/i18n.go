// Package main provides localization for the espcam CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("es", l10n.LexiconMap{
		// Root command
		"Extract frames from an ESP32 camera stream and highlight orange objects": "Extrae frames de la cámara ESP32 y resalta objetos naranjas",

		// Command output
		"Extracted %d frames to %s":                          "%d frames extraídos en %s",
		"MP4 video: %s, %dx%d":                               "Vídeo MP4: %s, %dx%d",
		"Frames: %d, Duration: %dms":                         "Frames: %d, duración: %dms",
		"MJPEG stream: %d frames in %d bytes (%d discarded)": "Transmisión MJPEG: %d frames en %d bytes (%d descartados)",
		"First frame: %dx%d":                                 "Primer frame: %dx%d",
		"espcam version %s":                                  "espcam versión %s",

		// Summary content
		"Stream Summary":        "Resumen de la transmisión",
		"Session":               "Sesión",
		"Stream":                "Transmisión",
		"Detection":             "Detección",
		"Recording":             "Grabación",
		"Item":                  "Elemento",
		"Value":                 "Valor",
		"Session ID":            "ID de sesión",
		"Source":                "Origen",
		"Started":               "Inicio",
		"Duration":              "Duración",
		"Stop Reason":           "Motivo de parada",
		"Frames Extracted":      "Frames extraídos",
		"Frames Decoded":        "Frames decodificados",
		"Decode Errors":         "Errores de decodificación",
		"Frame Size":            "Tamaño de frame",
		"Average FPS":           "FPS medios",
		"Bytes Read":            "Bytes leídos",
		"Bytes Discarded":       "Bytes descartados",
		"Label":                 "Etiqueta",
		"Hue":                   "Tono",
		"Saturation":            "Saturación",
		"Min Area":              "Área mínima",
		"Detections":            "Detecciones",
		"Frames With Objects":   "Frames con objetos",
		"Max Objects Per Frame": "Máximo de objetos por frame",
		"Stage Errors":          "Errores por etapa",
		"File":                  "Archivo",
		"Frames":                "Frames",
		"File Size":             "Tamaño de archivo",
		"Generated at":          "Generado el",
		"None":                  "Ninguno",
		"N/A":                   "N/D",

		// Stop reasons
		"End of stream":       "Fin de la transmisión",
		"Interrupted":         "Interrumpido",
		"Frame limit reached": "Límite de frames alcanzado",
		"Time limit reached":  "Límite de tiempo alcanzado",
		"Stream error":        "Error de transmisión",
	})

	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Extract frames from an ESP32 camera stream and highlight orange objects": "ESP32カメラのストリームからフレームを抽出し、オレンジ色の物体を強調表示",

		// Command output
		"Extracted %d frames to %s":                          "%d フレームを %s に抽出しました",
		"MP4 video: %s, %dx%d":                               "MP4動画: %s, %dx%d",
		"Frames: %d, Duration: %dms":                         "フレーム数: %d, 再生時間: %dms",
		"MJPEG stream: %d frames in %d bytes (%d discarded)": "MJPEGストリーム: %d フレーム / %d バイト (破棄 %d)",
		"First frame: %dx%d":                                 "最初のフレーム: %dx%d",
		"espcam version %s":                                  "espcam バージョン %s",

		// Summary content
		"Stream Summary":        "ストリームサマリー",
		"Session":               "セッション",
		"Stream":                "ストリーム",
		"Detection":             "検出",
		"Recording":             "録画",
		"Item":                  "項目",
		"Value":                 "値",
		"Session ID":            "セッションID",
		"Source":                "入力元",
		"Started":               "開始日時",
		"Duration":              "時間",
		"Stop Reason":           "終了理由",
		"Frames Extracted":      "抽出フレーム数",
		"Frames Decoded":        "デコードフレーム数",
		"Decode Errors":         "デコードエラー",
		"Frame Size":            "フレームサイズ",
		"Average FPS":           "平均FPS",
		"Bytes Read":            "読み込みバイト数",
		"Bytes Discarded":       "破棄バイト数",
		"Label":                 "ラベル",
		"Hue":                   "色相",
		"Saturation":            "彩度",
		"Min Area":              "最小面積",
		"Detections":            "検出数",
		"Frames With Objects":   "物体を含むフレーム",
		"Max Objects Per Frame": "フレームあたり最大物体数",
		"Stage Errors":          "ステージエラー",
		"File":                  "ファイル",
		"Frames":                "フレーム数",
		"File Size":             "ファイルサイズ",
		"Generated at":          "生成日時",
		"None":                  "なし",
		"N/A":                   "N/A",

		// Stop reasons
		"End of stream":       "ストリーム終端",
		"Interrupted":         "中断",
		"Frame limit reached": "フレーム数の上限に到達",
		"Time limit reached":  "時間の上限に到達",
		"Stream error":        "ストリームエラー",
	})
}
